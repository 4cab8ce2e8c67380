package repository

import (
	"context"

	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	Create(ctx context.Context, item *model.WishlistItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WishlistItem, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type wishlistRepo struct {
	db *gorm.DB
}

func NewWishlistRepo(db *gorm.DB) WishlistRepository {
	return &wishlistRepo{db}
}

func (r *wishlistRepo) Create(ctx context.Context, item *model.WishlistItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

func (r *wishlistRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WishlistItem, error) {
	var item model.WishlistItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *wishlistRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Product", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *wishlistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.WishlistItem{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
