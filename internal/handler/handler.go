package handler

import (
	"errors"
	"log"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/middleware"
	"go-ecom-api/internal/policy"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, apperror.ErrConflict), errors.Is(err, apperror.ErrValidation):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	}
	if status == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"error": apperror.Message(err)})
}

// principal returns the caller set by the auth middleware. Unauthenticated
// callers get the zero principal, which no policy grants anything.
func principal(c *fiber.Ctx) policy.Principal {
	p, _ := middleware.Principal(c)
	return p
}

// paramID parses the named route parameter as a UUID.
func paramID(c *fiber.Ctx, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid %s ID", what)
	}
	return id, nil
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}
