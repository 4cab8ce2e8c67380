package service

import (
	"context"
	"errors"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	Add(ctx context.Context, p policy.Principal, req *AddToCartRequest) (*model.CartItem, error)
	Get(ctx context.Context, p policy.Principal) (*CartResponse, error)
	UpdateQuantity(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateCartItemRequest) (*model.CartItem, error)
	Remove(ctx context.Context, p policy.Principal, id uuid.UUID) error
	Clear(ctx context.Context, p policy.Principal) error
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=1"`
}

// CartResponse totals are computed from live catalog prices; the order
// placed at checkout snapshots them.
type CartResponse struct {
	Items       []model.CartItem `json:"items"`
	TotalItems  int              `json:"total_items"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
}

type cartService struct {
	store repository.Store
}

func NewCartService(store repository.Store) CartService {
	return &cartService{store: store}
}

func (s *cartService) Add(ctx context.Context, p policy.Principal, req *AddToCartRequest) (*model.CartItem, error) {
	if err := policy.Authorize(p, policy.CartManage, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var item *model.CartItem
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		product, err := tx.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return lookupErr(err, "Product")
		}
		if !product.IsActive {
			return apperror.Conflict("Product '%s' is not available", product.Name)
		}

		item, err = tx.Carts().FindByUserAndProduct(ctx, p.UserID, req.ProductID)
		switch {
		case err == nil:
			item.Quantity += req.Quantity
			item.UpdatedBy = actor(p)
			if err := tx.Carts().Update(ctx, item); err != nil {
				return apperror.Database("failed to update cart", err)
			}
		case errors.Is(err, repository.ErrNotFound):
			item = &model.CartItem{UserID: p.UserID, ProductID: req.ProductID, Quantity: req.Quantity}
			item.CreatedBy = actor(p)
			item.UpdatedBy = actor(p)
			if err := tx.Carts().Create(ctx, item); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return apperror.Conflict("Product is already in the cart")
				}
				return apperror.Database("failed to add to cart", err)
			}
		default:
			return apperror.Database("failed to load cart", err)
		}
		item.Product = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) Get(ctx context.Context, p policy.Principal) (*CartResponse, error) {
	if err := policy.Authorize(p, policy.CartManage, p.UserID); err != nil {
		return nil, err
	}
	items, err := s.store.Carts().FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperror.Database("failed to load cart", err)
	}

	resp := &CartResponse{Items: items, TotalAmount: decimal.Zero}
	for _, item := range items {
		resp.TotalItems += item.Quantity
		if item.Product != nil {
			resp.TotalAmount = resp.TotalAmount.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return resp, nil
}

func (s *cartService) owned(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.CartItem, error) {
	item, err := s.store.Carts().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Cart item")
	}
	if err := authorizeOwned(p, policy.CartManage, item.UserID, "Cart item"); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateCartItemRequest) (*model.CartItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	item, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	item.Quantity = req.Quantity
	item.UpdatedBy = actor(p)
	if err := s.store.Carts().Update(ctx, item); err != nil {
		return nil, apperror.Database("failed to update cart", err)
	}
	return item, nil
}

func (s *cartService) Remove(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.store.Carts().Delete(ctx, id); err != nil {
		return lookupErr(err, "Cart item")
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, p policy.Principal) error {
	if err := policy.Authorize(p, policy.CartManage, p.UserID); err != nil {
		return err
	}
	if err := s.store.Carts().ClearByUser(ctx, p.UserID); err != nil {
		return apperror.Database("failed to clear cart", err)
	}
	return nil
}
