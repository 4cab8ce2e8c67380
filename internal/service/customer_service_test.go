package service

import (
	"testing"
	"time"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressDefaultIsExclusive(t *testing.T) {
	f := newFixture(t)
	home, err := f.addresses.Create(f.ctx, f.buyer, &CreateAddressRequest{
		StreetAddress: "1 Home Rd", City: "Springfield", Country: "US", IsDefault: true,
	})
	require.NoError(t, err)
	work, err := f.addresses.Create(f.ctx, f.buyer, &CreateAddressRequest{
		StreetAddress: "2 Work Ave", City: "Springfield", Country: "US", IsDefault: true,
	})
	require.NoError(t, err)

	defaults := func() []uuid.UUID {
		list, err := f.addresses.List(f.ctx, f.buyer)
		require.NoError(t, err)
		var out []uuid.UUID
		for _, a := range list {
			if a.IsDefault {
				out = append(out, a.ID)
			}
		}
		return out
	}
	assert.Equal(t, []uuid.UUID{work.ID}, defaults())

	yes := true
	_, err = f.addresses.Update(f.ctx, f.buyer, home.ID, &UpdateAddressRequest{IsDefault: &yes})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{home.ID}, defaults())
}

func TestAddressOwnership(t *testing.T) {
	f := newFixture(t)
	mine := f.address(f.buyer)

	city := "Elsewhere"
	_, err := f.addresses.Update(f.ctx, f.seller, mine.ID, &UpdateAddressRequest{City: &city})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, f.addresses.Delete(f.ctx, f.seller, mine.ID), apperror.ErrNotFound)

	_, err = f.addresses.Create(f.ctx, f.buyer, &CreateAddressRequest{City: "Springfield", Country: "US"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, f.addresses.Delete(f.ctx, f.buyer, mine.ID))
	assert.Equal(t, 0, f.store.Count("addresses"))
}

func TestAddressUsedByOrderCannotBeDeleted(t *testing.T) {
	s := newOrderSetup(t)
	book := s.product(s.seller, s.cat.ID, "BK", "1.00", 1)
	_, err := s.place(OrderItemRequest{ProductID: book.ID, Quantity: 1})
	require.NoError(t, err)

	err = s.addresses.Delete(s.ctx, s.buyer, s.address.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestCartMergesAndTotals(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Snacks")
	chips := f.product(f.seller, cat.ID, "CH", "2.50", 10)
	soda := f.product(f.seller, cat.ID, "SD", "1.25", 10)

	_, err := f.carts.Add(f.ctx, f.buyer, &AddToCartRequest{ProductID: chips.ID, Quantity: 1})
	require.NoError(t, err)
	merged, err := f.carts.Add(f.ctx, f.buyer, &AddToCartRequest{ProductID: chips.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Quantity)
	_, err = f.carts.Add(f.ctx, f.buyer, &AddToCartRequest{ProductID: soda.ID, Quantity: 4})
	require.NoError(t, err)

	cart, err := f.carts.Get(f.ctx, f.buyer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
	assert.Equal(t, 7, cart.TotalItems)
	assert.Equal(t, "12.50", cart.TotalAmount.StringFixed(2))

	updated, err := f.carts.UpdateQuantity(f.ctx, f.buyer, merged.ID, &UpdateCartItemRequest{Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	_, err = f.carts.UpdateQuantity(f.ctx, f.seller, merged.ID, &UpdateCartItemRequest{Quantity: 5})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = f.carts.UpdateQuantity(f.ctx, f.buyer, merged.ID, &UpdateCartItemRequest{Quantity: 0})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, f.carts.Remove(f.ctx, f.buyer, merged.ID))
	assert.Equal(t, 1, f.store.Count("cart_items"))
	require.NoError(t, f.carts.Clear(f.ctx, f.buyer))
	assert.Equal(t, 0, f.store.Count("cart_items"))
}

func TestCartRejectsUnavailableProducts(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Snacks")
	p := f.product(f.seller, cat.ID, "CH", "2.50", 10)
	off := false
	_, err := f.products.Update(f.ctx, f.seller, p.ID, &UpdateProductRequest{IsActive: &off})
	require.NoError(t, err)

	_, err = f.carts.Add(f.ctx, f.buyer, &AddToCartRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.carts.Add(f.ctx, f.buyer, &AddToCartRequest{ProductID: uuid.New(), Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 0, f.store.Count("cart_items"))
}

func TestWishlist(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Books")
	p := f.product(f.seller, cat.ID, "BK", "9.99", 1)

	item, err := f.wishlists.Add(f.ctx, f.buyer, &AddToWishlistRequest{ProductID: p.ID})
	require.NoError(t, err)

	_, err = f.wishlists.Add(f.ctx, f.buyer, &AddToWishlistRequest{ProductID: p.ID})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Product already in wishlist", apperror.Message(err))

	list, err := f.wishlists.Get(f.ctx, f.buyer)
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalItems)
	require.NotNil(t, list.Items[0].Product)
	assert.Equal(t, "BK", list.Items[0].Product.SKU)

	assert.ErrorIs(t, f.wishlists.Remove(f.ctx, f.seller, item.ID), apperror.ErrNotFound)
	require.NoError(t, f.wishlists.Remove(f.ctx, f.buyer, item.ID))
	assert.Equal(t, 0, f.store.Count("wishlist_items"))
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Books")
	p := f.product(f.seller, cat.ID, "BK", "9.99", 1)

	review, err := f.reviews.Create(f.ctx, f.buyer, &CreateReviewRequest{ProductID: p.ID, Rating: 4, Comment: "good"})
	require.NoError(t, err)

	_, err = f.reviews.Create(f.ctx, f.buyer, &CreateReviewRequest{ProductID: p.ID, Rating: 6})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = f.reviews.Create(f.ctx, f.buyer, &CreateReviewRequest{ProductID: uuid.New(), Rating: 3})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	rating := 1
	_, err = f.reviews.Update(f.ctx, f.seller, review.ID, &UpdateReviewRequest{Rating: &rating})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.ErrorIs(t, f.reviews.Delete(f.ctx, f.seller, review.ID), apperror.ErrForbidden)

	updated, err := f.reviews.Update(f.ctx, f.buyer, review.ID, &UpdateReviewRequest{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Rating)
	assert.Equal(t, "good", updated.Comment)

	list, err := f.reviews.ListByProduct(f.ctx, f.seller, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.reviews.Delete(f.ctx, f.admin, review.ID))
	assert.Equal(t, 0, f.store.Count("reviews"))
}

func TestDashboard(t *testing.T) {
	s := newOrderSetup(t)
	cheap := s.product(s.seller, s.cat.ID, "CH", "2.00", 5)
	dear := s.product(s.seller, s.cat.ID, "DR", "50.00", 20)

	first, err := s.place(OrderItemRequest{ProductID: cheap.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = s.place(OrderItemRequest{ProductID: dear.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = s.orders.Cancel(s.ctx, s.buyer, first.ID)
	require.NoError(t, err)

	_, err = s.dashboard.GetStats(s.ctx, s.seller)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	stats, err := s.dashboard.GetStats(s.ctx, s.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalProducts)
	assert.Equal(t, int64(1), stats.LowStockCount)
	// 5 x 2.00 + 18 x 50.00
	assert.Equal(t, "910.00", stats.InventoryValue.StringFixed(2))
	require.Len(t, stats.Orders, 2)
	assert.Equal(t, model.OrderCancelled, stats.Orders[0].Status)
	assert.Equal(t, model.OrderPending, stats.Orders[1].Status)
	assert.Equal(t, "100.00", stats.Orders[1].Amount.StringFixed(2))

	sales, err := s.dashboard.GetSales(s.ctx, s.admin, 7, time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "2025-01-01", sales[0].Date)
	assert.Equal(t, int64(1), sales[0].Orders)
	assert.Equal(t, "100.00", sales[0].Revenue.StringFixed(2))
}
