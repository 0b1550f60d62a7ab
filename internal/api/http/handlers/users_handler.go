package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/api/dto"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/service"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), p)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UserCreateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user, err := h.users.Create(c.UserContext(), p, service.UserCreateInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		IsActive: active,
		StaffID:  req.StaffID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update handles PATCH /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := domain.UserPatch{Email: req.Email, IsActive: req.IsActive, StaffID: req.StaffID}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	user, err := h.users.Update(c.UserContext(), p, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// ResetPassword handles POST /api/users/:id/reset-password.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.PasswordResetRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.users.ResetPassword(c.UserContext(), p, c.Params("id"), req.NewPassword); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
