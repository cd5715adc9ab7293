package handlers

import (
	"errors"

	"fitbook/internal/core/services"
	"fitbook/internal/pkg/pagination"
	"fitbook/internal/pkg/response"
	"fitbook/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// ClassHandler handles class endpoints: a public timetable view for
// members and full CRUD for admins.
type ClassHandler struct {
	classService     *services.ClassService
	ledgerService    *services.CapacityLedger
	timetableService *services.TimetableService
}

// NewClassHandler creates a new class handler
func NewClassHandler(classService *services.ClassService, ledgerService *services.CapacityLedger, timetableService *services.TimetableService) *ClassHandler {
	return &ClassHandler{
		classService:     classService,
		ledgerService:    ledgerService,
		timetableService: timetableService,
	}
}

// List handles listing all classes with their occurrences
// @Summary List classes
// @Description List all classes with their weekly occurrences and occupancy
// @Tags Classes
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /classes [get]
func (h *ClassHandler) List(c *fiber.Ctx) error {
	if c.Query("page") != "" || c.Query("limit") != "" {
		params := pagination.GetParams(c)
		classes, meta, err := h.classService.ListPaged(c.Context(), params)
		if err != nil {
			return response.InternalServerError(c, "Failed to list classes")
		}
		return c.JSON(pagination.Response{Data: classes, Meta: meta})
	}

	classes, err := h.classService.List(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list classes")
	}
	return response.Success(c, "Classes retrieved successfully", classes)
}

// Get handles getting a single class
// @Summary Get a class
// @Description Get a class with its occurrences
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid class ID")
	}

	class, err := h.classService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrClassNotFound) {
			return response.NotFound(c, "Class not found")
		}
		return response.InternalServerError(c, "Failed to get class")
	}

	return response.Success(c, "Class retrieved successfully", class)
}

// ListOccurrences handles listing every occurrence across all classes
// @Summary List occurrences
// @Description List every class occurrence with its class and occupancy
// @Tags Classes
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /classes/occurrences [get]
func (h *ClassHandler) ListOccurrences(c *fiber.Ctx) error {
	occs, err := h.classService.ListOccurrences(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list occurrences")
	}
	return response.Success(c, "Occurrences retrieved successfully", occs)
}

// GetOccurrence handles getting a single occurrence
// @Summary Get an occurrence
// @Description Get a class occurrence with its occupancy
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path int true "Occurrence ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /classes/occurrences/{id} [get]
func (h *ClassHandler) GetOccurrence(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid occurrence ID")
	}

	occ, err := h.classService.GetOccurrence(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOccurrenceNotFound) {
			return response.NotFound(c, "Class occurrence not found")
		}
		return response.InternalServerError(c, "Failed to get occurrence")
	}

	return response.Success(c, "Occurrence retrieved successfully", occ)
}

// Create handles creating a class
// @Summary Create a class
// @Description Create a class with its weekly occurrences
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ClassInput true "Class data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /admin/classes [post]
func (h *ClassHandler) Create(c *fiber.Ctx) error {
	var input services.ClassInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	class, err := h.classService.Create(c.Context(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create class")
	}

	return response.Created(c, "Class created successfully", class)
}

// Update handles updating a class and syncing its occurrences
// @Summary Update a class
// @Description Update a class; occurrences missing from the request are removed
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Param body body services.ClassInput true "Class data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/classes/{id} [put]
func (h *ClassHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid class ID")
	}

	var input services.ClassInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	class, err := h.classService.Update(c.Context(), id, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClassNotFound):
			return response.NotFound(c, "Class not found")
		case errors.Is(err, services.ErrOccurrenceNotFound):
			return response.NotFound(c, "Class occurrence not found")
		default:
			return response.InternalServerError(c, "Failed to update class")
		}
	}

	return response.Success(c, "Class updated successfully", class)
}

// Delete handles deleting a class
// @Summary Delete a class
// @Description Delete a class with its occurrences and bookings
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/classes/{id} [delete]
func (h *ClassHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid class ID")
	}

	if err := h.classService.Delete(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrClassNotFound) {
			return response.NotFound(c, "Class not found")
		}
		return response.InternalServerError(c, "Failed to delete class")
	}

	return response.Success(c, "Class deleted successfully", nil)
}

// SetCapacityRequest represents a max capacity change request
type SetCapacityRequest struct {
	MaxCapacity int `json:"max_capacity" validate:"required,gt=0"`
}

// SetCapacity handles changing the seat limit of an occurrence
// @Summary Set occurrence capacity
// @Description Change the maximum capacity of a class occurrence
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Occurrence ID"
// @Param body body SetCapacityRequest true "New capacity"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/occurrences/{id}/capacity [put]
func (h *ClassHandler) SetCapacity(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid occurrence ID")
	}

	var req SetCapacityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.ledgerService.SetMaxCapacity(c.Context(), id, req.MaxCapacity); err != nil {
		switch {
		case errors.Is(err, services.ErrOccurrenceNotFound):
			return response.NotFound(c, "Class occurrence not found")
		case errors.Is(err, services.ErrInvalidCapacity):
			return response.BadRequest(c, "Max capacity must be positive")
		default:
			return response.InternalServerError(c, "Failed to set capacity")
		}
	}

	occ, err := h.classService.GetOccurrence(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to load occurrence")
	}

	// max_capacity is part of the exported document, keep the snapshot current
	h.timetableService.Refresh(c.Context())

	return response.Success(c, "Capacity updated successfully", occ)
}

// ReconcileOne handles recomputing one occurrence's occupancy counter
// @Summary Reconcile one capacity
// @Description Recompute a single occurrence's occupancy from its live bookings
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Occurrence ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/occurrences/{id}/reconcile [post]
func (h *ClassHandler) ReconcileOne(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid occurrence ID")
	}

	current, err := h.ledgerService.Reconcile(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrOccurrenceNotFound) {
			return response.NotFound(c, "Class occurrence not found")
		}
		return response.InternalServerError(c, "Failed to reconcile capacity")
	}

	return response.Success(c, "Capacity reconciled successfully", fiber.Map{
		"occurrence_id":    id,
		"current_capacity": current,
	})
}

// Reconcile handles recomputing occupancy counters from live bookings
// @Summary Reconcile capacities
// @Description Recompute every occurrence's occupancy from its live bookings
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/occurrences/reconcile [post]
func (h *ClassHandler) Reconcile(c *fiber.Ctx) error {
	corrected, err := h.ledgerService.ReconcileAll(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to reconcile capacities")
	}

	return response.Success(c, "Capacities reconciled successfully", fiber.Map{
		"corrected": corrected,
	})
}
