package repository

import (
	"context"

	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	Create(ctx context.Context, item *model.CartItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CartItem, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error)
	Update(ctx context.Context, item *model.CartItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) error
}

type cartRepo struct {
	db *gorm.DB
}

func NewCartRepo(db *gorm.DB) CartRepository {
	return &cartRepo{db}
}

func (r *cartRepo) Create(ctx context.Context, item *model.CartItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error)
}

func (r *cartRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).Preload("Product").First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	var items []model.CartItem
	err := r.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, translate(err)
	}
	return items, nil
}

func (r *cartRepo) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *cartRepo) Update(ctx context.Context, item *model.CartItem) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error)
}

func (r *cartRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.CartItem{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *cartRepo) ClearByUser(ctx context.Context, userID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error)
}
