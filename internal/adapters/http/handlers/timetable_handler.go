package handlers

import (
	"fitbook/internal/config"
	"fitbook/internal/core/services"
	"fitbook/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TimetableHandler handles timetable snapshot and seeding endpoints
type TimetableHandler struct {
	timetableService *services.TimetableService
	seeder           *config.Seeder
}

// NewTimetableHandler creates a new timetable handler
func NewTimetableHandler(timetableService *services.TimetableService, seeder *config.Seeder) *TimetableHandler {
	return &TimetableHandler{timetableService: timetableService, seeder: seeder}
}

// Export handles exporting the timetable snapshot
// @Summary Export timetable
// @Description Return the timetable snapshot document
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Timetable
// @Router /admin/timetable [get]
func (h *TimetableHandler) Export(c *fiber.Ctx) error {
	timetable, err := h.timetableService.Export(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to export timetable")
	}
	return c.JSON(timetable)
}

// Refresh handles rewriting the timetable file from the store
// @Summary Refresh timetable file
// @Description Rewrite the timetable file from the current store state
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/timetable/refresh [post]
func (h *TimetableHandler) Refresh(c *fiber.Ctx) error {
	if err := h.timetableService.ExportToFile(c.Context()); err != nil {
		return response.InternalServerError(c, "Failed to write timetable file")
	}
	return response.Success(c, "Timetable file refreshed successfully", nil)
}

// Initialize handles re-running the first-run seeders
// @Summary Initialize database
// @Description Re-run idempotent seeding: timetable import and the default admin account
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/initialize [post]
func (h *TimetableHandler) Initialize(c *fiber.Ctx) error {
	if err := h.seeder.Run(c.Context()); err != nil {
		return response.InternalServerError(c, "Failed to initialize database")
	}
	return response.Success(c, "Database initialized successfully", nil)
}

// Import handles seeding the store from the timetable file
// @Summary Import timetable
// @Description Seed classes and occurrences from the timetable file; existing entries are kept
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/timetable/import [post]
func (h *TimetableHandler) Import(c *fiber.Ctx) error {
	if err := h.timetableService.ImportFromFile(c.Context()); err != nil {
		return response.InternalServerError(c, "Failed to import timetable")
	}
	return response.Success(c, "Timetable imported successfully", nil)
}
