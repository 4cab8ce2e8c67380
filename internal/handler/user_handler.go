package handler

import (
	"time"

	"go-ecom-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the signed-in user
// GET /api/v1/users/profile
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateProfile applies a partial profile update
// PUT /api/v1/users/profile
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.UpdateProfile(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetSellers lists seller accounts
// GET /api/v1/admin/sellers
func (h *UserHandler) GetSellers(c *fiber.Ctx) error {
	users, err := h.userService.ListSellers(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetUsers lists every non-admin account
// GET /api/v1/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ChangeRole sets a user's role
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "user")
	if err != nil {
		return respondError(c, err)
	}

	var req service.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	user, err := h.userService.ChangeRole(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated", "data": user})
}

// GetRegistrationStats compares sign-ups this year against last year
// GET /api/v1/admin/users/count
func (h *UserHandler) GetRegistrationStats(c *fiber.Ctx) error {
	stats, err := h.userService.RegistrationStats(c.UserContext(), principal(c), time.Now())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
