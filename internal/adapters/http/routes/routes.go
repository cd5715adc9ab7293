package routes

import (
	"fitbook/internal/adapters/http/handlers"
	"fitbook/internal/adapters/http/middleware"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/config"
	"fitbook/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	classRepo := repositories.NewClassRepository(db)
	occurrenceRepo := repositories.NewOccurrenceRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)

	// Initialize services
	ledger := services.NewCapacityLedger(occurrenceRepo)
	timetableService := services.NewTimetableService(db, classRepo, occurrenceRepo, cfg.TimetablePath)
	bookingService := services.NewBookingService(db, bookingRepo, occurrenceRepo, ledger)
	classService := services.NewClassService(db, classRepo, occurrenceRepo, timetableService)
	authService := services.NewAuthService(userRepo, memberRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(db, userRepo, memberRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	classHandler := handlers.NewClassHandler(classService, ledger, timetableService)
	bookingHandler := handlers.NewBookingHandler(bookingService, classService)
	userHandler := handlers.NewUserHandler(userService)
	timetableHandler := handlers.NewTimetableHandler(timetableService, config.NewSeeder(db, cfg, timetableService))

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public, rate limited)
	authRoutes := apiV1.Group("/auth")
	authRoutes.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	authRoutes.Post("/refresh", authHandler.RefreshToken)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", middleware.AuthMiddleware(cfg), authHandler.Me)
	authRoutes.Post("/logout-all", middleware.AuthMiddleware(cfg), authHandler.LogoutAll)

	// Class routes (public timetable view). Occurrence routes are
	// registered before /classes/:id so the literal segment wins.
	apiV1.Get("/classes", classHandler.List)
	apiV1.Get("/classes/occurrences", classHandler.ListOccurrences)
	apiV1.Get("/classes/occurrences/:id", classHandler.GetOccurrence)
	apiV1.Get("/classes/:id", classHandler.Get)

	// Booking routes (authenticated members)
	bookingRoutes := apiV1.Group("/bookings")
	bookingRoutes.Use(middleware.AuthMiddleware(cfg))
	bookingRoutes.Get("/", bookingHandler.List)
	bookingRoutes.Post("/:id", bookingHandler.Schedule)
	bookingRoutes.Delete("/:id", bookingHandler.Cancel)

	// Member profile (authenticated members)
	apiV1.Get("/member", middleware.AuthMiddleware(cfg), userHandler.Profile)

	// Admin routes
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())

	adminRoutes.Get("/users", userHandler.List)
	adminRoutes.Post("/users", userHandler.Create)
	adminRoutes.Get("/users/:id", userHandler.Get)
	adminRoutes.Put("/users/:id", userHandler.Update)
	adminRoutes.Delete("/users/:id", userHandler.Delete)

	adminRoutes.Post("/classes", classHandler.Create)
	adminRoutes.Put("/classes/:id", classHandler.Update)
	adminRoutes.Delete("/classes/:id", classHandler.Delete)

	adminRoutes.Put("/occurrences/:id/capacity", classHandler.SetCapacity)
	adminRoutes.Post("/occurrences/reconcile", classHandler.Reconcile)
	adminRoutes.Post("/occurrences/:id/reconcile", classHandler.ReconcileOne)

	adminRoutes.Post("/initialize", timetableHandler.Initialize)

	adminRoutes.Get("/timetable", timetableHandler.Export)
	adminRoutes.Post("/timetable/refresh", timetableHandler.Refresh)
	adminRoutes.Post("/timetable/import", timetableHandler.Import)
}
