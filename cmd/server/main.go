package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"fitbook/internal/adapters/http/middleware"
	"fitbook/internal/adapters/http/routes"
	"fitbook/internal/adapters/persistence/models"
	"fitbook/internal/adapters/persistence/repositories"
	"fitbook/internal/config"
	"fitbook/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "fitbook/docs" // Swagger docs
)

// @title FitBook API
// @version 1.0
// @description Gym class booking API with capacity-bounded reservations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@fitbook.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:3000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// First-run seeding: timetable import + admin account
	classRepo := repositories.NewClassRepository(db)
	occurrenceRepo := repositories.NewOccurrenceRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	timetableService := services.NewTimetableService(db, classRepo, occurrenceRepo, cfg.TimetablePath)

	seeder := config.NewSeeder(db, cfg, timetableService)
	if err := seeder.Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed database: %v", err)
	}

	// Start cron service for nightly reconciliation and token cleanup
	ledger := services.NewCapacityLedger(occurrenceRepo)
	cronService := services.NewCronService(ledger, refreshTokenRepo)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "FitBook API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
