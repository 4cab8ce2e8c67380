package repository

import (
	"context"
	"sort"

	"go-ecom-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error)
	FindByOwnerAndSKU(ctx context.Context, ownerID uuid.UUID, sku string) (*model.Product, error)
	// FindForUpdate locks the rows of ids, in id order, until the
	// surrounding transaction ends. Missing ids are simply absent.
	FindForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, updatedBy string) error
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error)
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Preload("Category").Order("created_at ASC").Find(&products).Error; err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *productRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Preload("Category").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *productRepo) FindByOwnerAndSKU(ctx context.Context, ownerID uuid.UUID, sku string) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("owner_id = ? AND sku = ?", ownerID, sku).First(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepo) FindForUpdate(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	var products []model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id").
		Find(&products).Error
	if err != nil {
		return nil, translate(err)
	}
	return products, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error)
}

// AdjustStock adds delta to the stock in place so concurrent writers never
// overwrite each other. The check constraint rejects a negative result.
func (r *productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int, updatedBy string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_by":     updatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the product. Order lines keep pointing at it.
func (r *productRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Product{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
			return translate(err)
		}
		res := tx.Delete(&model.Product{}, "id = ?", id)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
