package service

import (
	"context"
	"errors"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

type WishlistService interface {
	Add(ctx context.Context, p policy.Principal, req *AddToWishlistRequest) (*model.WishlistItem, error)
	Get(ctx context.Context, p policy.Principal) (*WishlistResponse, error)
	Remove(ctx context.Context, p policy.Principal, id uuid.UUID) error
}

type AddToWishlistRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
}

type WishlistResponse struct {
	Items      []model.WishlistItem `json:"items"`
	TotalItems int                  `json:"total_items"`
}

type wishlistService struct {
	store repository.Store
}

func NewWishlistService(store repository.Store) WishlistService {
	return &wishlistService{store: store}
}

func (s *wishlistService) Add(ctx context.Context, p policy.Principal, req *AddToWishlistRequest) (*model.WishlistItem, error) {
	if err := policy.Authorize(p, policy.WishlistManage, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	product, err := s.store.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, lookupErr(err, "Product")
	}

	item := &model.WishlistItem{UserID: p.UserID, ProductID: product.ID}
	item.CreatedBy = actor(p)
	item.UpdatedBy = actor(p)
	if err := s.store.Wishlists().Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("Product already in wishlist")
		}
		return nil, apperror.Database("failed to add to wishlist", err)
	}
	item.Product = product
	return item, nil
}

func (s *wishlistService) Get(ctx context.Context, p policy.Principal) (*WishlistResponse, error) {
	if err := policy.Authorize(p, policy.WishlistManage, p.UserID); err != nil {
		return nil, err
	}
	items, err := s.store.Wishlists().FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperror.Database("failed to load wishlist", err)
	}
	return &WishlistResponse{Items: items, TotalItems: len(items)}, nil
}

func (s *wishlistService) Remove(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	item, err := s.store.Wishlists().FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, "Wishlist item")
	}
	if err := authorizeOwned(p, policy.WishlistManage, item.UserID, "Wishlist item"); err != nil {
		return err
	}
	if err := s.store.Wishlists().Delete(ctx, id); err != nil {
		return lookupErr(err, "Wishlist item")
	}
	return nil
}
