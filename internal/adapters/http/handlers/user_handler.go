package handlers

import (
	"errors"

	"fitbook/internal/core/services"
	"fitbook/internal/pkg/pagination"
	"fitbook/internal/pkg/response"
	"fitbook/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles admin user management and the member profile endpoint
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles listing users
// @Summary List users
// @Description List user accounts with their member profiles
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} pagination.Response
// @Router /admin/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	users, meta, err := h.userService.List(c.Context(), params)
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return c.JSON(pagination.Response{Data: users, Meta: meta})
}

// Get handles getting a single user
// @Summary Get a user
// @Description Get a user account with its member profile
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return response.NotFound(c, "User not found")
		}
		return response.InternalServerError(c, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", user.ToResponse())
}

// Create handles creating a user with their member profile
// @Summary Create a user
// @Description Provision a user account with its member profile
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "User data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/users [post]
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var input services.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	user, err := h.userService.Create(c.Context(), &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDate):
			return response.BadRequest(c, "Dates must be in DD/MM/YYYY format")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password must be at least 8 characters")
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "Username already taken")
		case errors.Is(err, services.ErrMembershipNumberTaken):
			return response.Conflict(c, "Membership number already taken")
		default:
			return response.InternalServerError(c, "Failed to create user")
		}
	}

	return response.Created(c, "User created successfully", user.ToResponse())
}

// Update handles updating a user and their member profile
// @Summary Update a user
// @Description Update a user account and its member profile
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateUserInput true "User data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	user, err := h.userService.Update(c.Context(), id, &input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrMemberNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrInvalidDate):
			return response.BadRequest(c, "Dates must be in DD/MM/YYYY format")
		case errors.Is(err, services.ErrWeakPassword):
			return response.BadRequest(c, "Password must be at least 8 characters")
		case errors.Is(err, services.ErrUsernameTaken):
			return response.Conflict(c, "Username already taken")
		case errors.Is(err, services.ErrMembershipNumberTaken):
			return response.Conflict(c, "Membership number already taken")
		default:
			return response.InternalServerError(c, "Failed to update user")
		}
	}

	return response.Success(c, "User updated successfully", user.ToResponse())
}

// Delete handles deleting a user
// @Summary Delete a user
// @Description Delete a user with their profile, bookings and sessions
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	actorID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.userService.Delete(c.Context(), id, actorID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.NotFound(c, "User not found")
		case errors.Is(err, services.ErrCannotDeleteSelf):
			return response.BadRequest(c, "Cannot delete your own account")
		default:
			return response.InternalServerError(c, "Failed to delete user")
		}
	}

	return response.Success(c, "User deleted successfully", nil)
}

// Profile handles the current member's profile
// @Summary Get my member profile
// @Description Get the current user's member profile
// @Tags Member
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /member [get]
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	member, err := h.userService.GetMember(c.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrMemberNotFound) {
			return response.NotFound(c, "Member profile not found")
		}
		return response.InternalServerError(c, "Failed to get member profile")
	}

	return response.Success(c, "Member profile retrieved successfully", member.ToResponse())
}
