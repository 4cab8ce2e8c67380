package handler

import (
	"go-ecom-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

// CreateOrder places an order for explicit lines
// POST /api/v1/orders/create
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	order, err := h.service.Create(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// Checkout places an order for the caller's cart
// POST /api/v1/orders/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	order, err := h.service.Checkout(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) PayOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.Pay(c.UserContext(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// UpdateStatus is the admin status override
// PUT /api/v1/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}

	var req service.UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	order, err := h.service.UpdateStatus(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// CancelOrder
// DELETE /api/v1/orders/:id
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.Cancel(c.UserContext(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled", "data": order})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "order")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.service.Get(c.UserContext(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	orders, err := h.service.List(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListAll(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(orders)
}
