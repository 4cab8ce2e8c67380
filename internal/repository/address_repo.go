package repository

import (
	"context"

	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AddressRepository interface {
	Create(ctx context.Context, address *model.Address) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Address, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error)
	Update(ctx context.Context, address *model.Address) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault unsets is_default on every address of userID except keepID.
	ClearDefault(ctx context.Context, userID, keepID uuid.UUID) error
}

type addressRepo struct {
	db *gorm.DB
}

func NewAddressRepo(db *gorm.DB) AddressRepository {
	return &addressRepo{db}
}

func (r *addressRepo) Create(ctx context.Context, address *model.Address) error {
	return translate(r.db.WithContext(ctx).Create(address).Error)
}

func (r *addressRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	var address model.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &address, nil
}

func (r *addressRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	var addresses []model.Address
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&addresses).Error
	if err != nil {
		return nil, translate(err)
	}
	return addresses, nil
}

func (r *addressRepo) Update(ctx context.Context, address *model.Address) error {
	return translate(r.db.WithContext(ctx).Save(address).Error)
}

func (r *addressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Address{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *addressRepo) ClearDefault(ctx context.Context, userID, keepID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).Model(&model.Address{}).
		Where("user_id = ? AND id <> ? AND is_default", userID, keepID).
		Update("is_default", false).Error)
}
