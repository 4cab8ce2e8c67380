package handler

import (
	"go-ecom-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler serves the caller's address book.
type AddressHandler struct {
	service service.AddressService
}

func NewAddressHandler(s service.AddressService) *AddressHandler {
	return &AddressHandler{service: s}
}

func (h *AddressHandler) CreateAddress(c *fiber.Ctx) error {
	var req service.CreateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	address, err := h.service.Create(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

func (h *AddressHandler) GetAddresses(c *fiber.Ctx) error {
	addresses, err := h.service.List(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(addresses)
}

func (h *AddressHandler) UpdateAddress(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "address")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	address, err := h.service.Update(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(address)
}

func (h *AddressHandler) DeleteAddress(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "address")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Address deleted"})
}

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var req service.AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	item, err := h.service.Add(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.service.Get(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "cart item")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	item, err := h.service.UpdateQuantity(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "cart item")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Remove(c.UserContext(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart"})
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(c.UserContext(), principal(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}

type WishlistHandler struct {
	service service.WishlistService
}

func NewWishlistHandler(s service.WishlistService) *WishlistHandler {
	return &WishlistHandler{service: s}
}

func (h *WishlistHandler) AddItem(c *fiber.Ctx) error {
	var req service.AddToWishlistRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	item, err := h.service.Add(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *WishlistHandler) GetWishlist(c *fiber.Ctx) error {
	list, err := h.service.Get(c.UserContext(), principal(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

func (h *WishlistHandler) RemoveItem(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "wishlist item")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Remove(c.UserContext(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from wishlist"})
}

type ReviewHandler struct {
	service service.ReviewService
}

func NewReviewHandler(s service.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: s}
}

func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	var req service.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	review, err := h.service.Create(c.UserContext(), principal(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

func (h *ReviewHandler) UpdateReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "review")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	review, err := h.service.Update(c.UserContext(), principal(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(review)
}

func (h *ReviewHandler) DeleteReview(c *fiber.Ctx) error {
	id, err := paramID(c, "id", "review")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Delete(c.UserContext(), principal(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted"})
}

func (h *ReviewHandler) GetProductReviews(c *fiber.Ctx) error {
	id, err := paramID(c, "product_id", "product")
	if err != nil {
		return respondError(c, err)
	}
	reviews, err := h.service.ListByProduct(c.UserContext(), principal(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reviews)
}
