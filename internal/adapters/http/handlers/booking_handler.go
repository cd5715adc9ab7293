package handlers

import (
	"errors"
	"strconv"

	"fitbook/internal/core/services"
	"fitbook/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	classService   *services.ClassService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService, classService *services.ClassService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		classService:   classService,
	}
}

// Schedule handles booking a class occurrence
// @Summary Book a class
// @Description Reserve a seat on a class occurrence for the current user
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Occurrence ID"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/{id} [post]
func (h *BookingHandler) Schedule(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	occurrenceID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid occurrence ID")
	}

	result, err := h.bookingService.Schedule(c.Context(), userID, occurrenceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOccurrenceNotFound):
			return response.NotFound(c, "Class occurrence not found")
		case errors.Is(err, services.ErrAlreadyBooked):
			return response.Conflict(c, "You have already booked this class")
		case errors.Is(err, services.ErrClassFull):
			return h.classFull(c, occurrenceID)
		default:
			return response.InternalServerError(c, "Failed to book class")
		}
	}

	return response.Created(c, "Class booked successfully", result)
}

// Cancel handles cancelling a booking
// @Summary Cancel a booking
// @Description Cancel the current user's booking on a class occurrence
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Occurrence ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	occurrenceID, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid occurrence ID")
	}

	result, err := h.bookingService.Cancel(c.Context(), userID, occurrenceID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOccurrenceNotFound):
			return response.NotFound(c, "Class occurrence not found")
		case errors.Is(err, services.ErrBookingNotFound):
			return response.NotFound(c, "Booking not found")
		default:
			return response.InternalServerError(c, "Failed to cancel booking")
		}
	}

	return response.Success(c, "Booking cancelled successfully", result)
}

// List handles listing the current user's bookings
// @Summary List my bookings
// @Description List the current user's bookings with class details
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookings, err := h.bookingService.ListBookings(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list bookings")
	}

	return response.Success(c, "Bookings retrieved successfully", bookings)
}

// classFull builds the 409 body for a full class, carrying the occupancy
// numbers so the frontend can show them.
func (h *BookingHandler) classFull(c *fiber.Ctx, occurrenceID uint) error {
	occ, err := h.classService.GetOccurrence(c.Context(), occurrenceID)
	if err != nil {
		return response.Conflict(c, "Class is full")
	}
	return response.ErrorWithData(c, fiber.StatusConflict, "Class is full", fiber.Map{
		"occurrence_id":    occ.ID,
		"current_capacity": occ.CurrentCapacity,
		"max_capacity":     occ.MaxCapacity,
	})
}

// parseIDParam parses a positive uint path parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
