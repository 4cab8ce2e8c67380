package handler

import (
	"go-ecom-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	service service.CategoryService
}

func NewCategoryHandler(s service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: s}
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req service.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	category, err := h.service.Create(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Category created", "data": category})
}

func (h *CategoryHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "category")
	if err != nil {
		return respondError(c, err)
	}

	var req service.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	updated, err := h.service.Update(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Category updated", "data": updated})
}

func (h *CategoryHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "category")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.service.Delete(c.UserContext(), principal(c), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Category deleted"})
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.List(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) GetCategory(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "category")
	if err != nil {
		return respondError(c, err)
	}

	category, err := h.service.Get(c.UserContext(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}
