package service

import (
	"context"
	"errors"
	"fmt"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"
	"go-ecom-api/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	Create(ctx context.Context, p policy.Principal, req *CreateProductRequest) (*model.Product, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, p policy.Principal) ([]model.Product, error)
}

type CreateProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" validate:"gt=0,money"`
	StockQuantity int             `json:"stock_quantity" validate:"gte=0"`
	SKU           string          `json:"sku" validate:"required,max=50"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url,max=255"`
	IsActive      *bool           `json:"is_active"`
	CategoryID    uuid.UUID       `json:"category_id" validate:"uuid_required"`
}

// UpdateProductRequest is a field mask: nil fields are left untouched.
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gt=0,money"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	SKU           *string          `json:"sku" validate:"omitempty,min=1,max=50"`
	ImageURL      *string          `json:"image_url" validate:"omitempty,url,max=255"`
	IsActive      *bool            `json:"is_active"`
	CategoryID    *uuid.UUID       `json:"category_id" validate:"omitempty,uuid_required"`
}

// apply copies the set fields onto product and reports whether the SKU or
// the category changed.
func (r *UpdateProductRequest) apply(product *model.Product) (skuChanged, categoryChanged bool) {
	if r.Name != nil {
		product.Name = *r.Name
	}
	if r.Description != nil {
		product.Description = *r.Description
	}
	if r.Price != nil {
		product.Price = *r.Price
	}
	if r.StockQuantity != nil {
		product.StockQuantity = *r.StockQuantity
	}
	if r.SKU != nil && *r.SKU != product.SKU {
		product.SKU = *r.SKU
		skuChanged = true
	}
	if r.ImageURL != nil {
		product.ImageURL = *r.ImageURL
	}
	if r.IsActive != nil {
		product.IsActive = *r.IsActive
	}
	if r.CategoryID != nil && *r.CategoryID != product.CategoryID {
		product.CategoryID = *r.CategoryID
		product.Category = nil
		categoryChanged = true
	}
	return skuChanged, categoryChanged
}

type productService struct {
	store  repository.Store
	loader *cache.Loader
	ttl    CacheTTLs
	events EventPublisher
}

func NewProductService(store repository.Store, loader *cache.Loader, ttl CacheTTLs, events EventPublisher) ProductService {
	if events == nil {
		events = nopEvents{}
	}
	return &productService{store: store, loader: loader, ttl: ttl, events: events}
}

func skuConflict(sku string) error {
	return apperror.Conflict("Product with SKU '%s' already exists", sku)
}

// saveProductErr classifies a failed insert or update. A unique violation is the
// same conflict the pre-check reports, for writers that raced past it.
func saveProductErr(err error, sku string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return skuConflict(sku)
	case errors.Is(err, repository.ErrForeignKey):
		return apperror.NotFound("Category not found")
	case errors.Is(err, repository.ErrCheckViolation):
		return apperror.Validation("product values violate a catalog constraint")
	}
	return apperror.Database("failed to save product", err)
}

func (s *productService) ensureSKUFree(ctx context.Context, tx repository.Store, ownerID uuid.UUID, sku string, self uuid.UUID) error {
	existing, err := tx.Products().FindByOwnerAndSKU(ctx, ownerID, sku)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperror.Database("failed to check SKU", err)
	case existing.ID != self:
		return skuConflict(sku)
	}
	return nil
}

func (s *productService) Create(ctx context.Context, p policy.Principal, req *CreateProductRequest) (*model.Product, error) {
	if err := policy.Authorize(p, policy.ProductCreate, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive == nil || *req.IsActive,
		CategoryID:    req.CategoryID,
		OwnerID:       p.UserID,
	}
	product.CreatedBy = actor(p)
	product.UpdatedBy = actor(p)

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		category, err := tx.Categories().FindByID(ctx, req.CategoryID)
		if err != nil {
			return lookupErr(err, "Category")
		}
		if err := s.ensureSKUFree(ctx, tx, p.UserID, req.SKU, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Products().Create(ctx, product); err != nil {
			return saveProductErr(err, req.SKU)
		}
		product.Category = category
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.loader.Cache(), []uuid.UUID{product.ID}, []uuid.UUID{product.OwnerID})
	s.publish("created", product, p)
	return product, nil
}

func (s *productService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateProductRequest) (*model.Product, error) {
	if _, ok := policy.Allowed(p, policy.ProductUpdate); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.ProductUpdate)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var product *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		// Lock first: the row is saved whole, stock included, so an order
		// committing in between would otherwise be overwritten.
		if _, err := tx.Products().FindForUpdate(ctx, []uuid.UUID{id}); err != nil {
			return apperror.Database("failed to lock product", err)
		}
		var err error
		product, err = tx.Products().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Product")
		}
		if err := authorizeOwned(p, policy.ProductUpdate, product.OwnerID, "Product"); err != nil {
			return err
		}

		skuChanged, categoryChanged := req.apply(product)
		if skuChanged {
			if err := s.ensureSKUFree(ctx, tx, product.OwnerID, product.SKU, product.ID); err != nil {
				return err
			}
		}
		if categoryChanged {
			category, err := tx.Categories().FindByID(ctx, product.CategoryID)
			if err != nil {
				return lookupErr(err, "Category")
			}
			product.Category = category
		}
		product.UpdatedBy = actor(p)

		if err := tx.Products().Update(ctx, product); err != nil {
			return saveProductErr(err, product.SKU)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.loader.Cache(), []uuid.UUID{product.ID}, []uuid.UUID{product.OwnerID})
	s.publish("updated", product, p)
	return product, nil
}

func (s *productService) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if _, ok := policy.Allowed(p, policy.ProductDelete); !ok {
		return apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.ProductDelete)
	}

	var product *model.Product
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		product, err = tx.Products().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Product")
		}
		if err := authorizeOwned(p, policy.ProductDelete, product.OwnerID, "Product"); err != nil {
			return err
		}
		if err := tx.Products().Delete(ctx, id, actor(p)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound("Product not found")
			}
			return apperror.Database("failed to delete product", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidateProducts(ctx, s.loader.Cache(), []uuid.UUID{product.ID}, []uuid.UUID{product.OwnerID})
	s.publish("deleted", product, p)
	return nil
}

// visible reports whether p may read product.
func visible(p policy.Principal, product *model.Product) bool {
	if scope, ok := policy.Allowed(p, policy.ProductView); ok {
		if scope == policy.ScopeAny || product.OwnerID == p.UserID {
			return true
		}
	}
	_, browse := policy.Allowed(p, policy.ProductBrowse)
	return browse && product.IsActive
}

func (s *productService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Product, error) {
	product, err := cache.ReadThrough(ctx, s.loader, cache.ProductKey(id), s.ttl.Product,
		func(ctx context.Context) (*model.Product, error) {
			return s.store.Products().FindByID(ctx, id)
		})
	if err != nil {
		return nil, lookupErr(err, "Product")
	}
	if !visible(p, product) {
		return nil, apperror.NotFound("Product not found")
	}
	return product, nil
}

func (s *productService) List(ctx context.Context, p policy.Principal) ([]model.Product, error) {
	if scope, ok := policy.Allowed(p, policy.ProductView); ok {
		if scope == policy.ScopeAny {
			return s.listAll(ctx)
		}
		products, err := cache.ReadThrough(ctx, s.loader, cache.OwnerProductsKey(p.UserID), s.ttl.Product,
			func(ctx context.Context) ([]model.Product, error) {
				return s.store.Products().FindByOwner(ctx, p.UserID)
			})
		if err != nil {
			return nil, apperror.Database("failed to list products", err)
		}
		return products, nil
	}

	if _, ok := policy.Allowed(p, policy.ProductBrowse); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.ProductBrowse)
	}
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]model.Product, 0, len(all))
	for _, product := range all {
		if product.IsActive {
			active = append(active, product)
		}
	}
	return active, nil
}

func (s *productService) listAll(ctx context.Context) ([]model.Product, error) {
	products, err := cache.ReadThrough(ctx, s.loader, cache.AllProductsKey, s.ttl.Product, s.store.Products().FindAll)
	if err != nil {
		return nil, apperror.Database("failed to list products", err)
	}
	return products, nil
}

func (s *productService) publish(action string, product *model.Product, p policy.Principal) {
	s.events.Publish(ws.Event{
		Type:   ws.EventProductChanged,
		Action: action,
		Payload: map[string]interface{}{
			"id":             product.ID,
			"sku":            product.SKU,
			"name":           product.Name,
			"price":          product.Price,
			"stock_quantity": product.StockQuantity,
			"owner_id":       product.OwnerID,
		},
		Message: fmt.Sprintf("%s %s product '%s'", p.Email, action, product.Name),
	})
}
