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
)

// maxCategoryDepth bounds the ancestor walk when checking for cycles.
const maxCategoryDepth = 64

type CategoryService interface {
	Create(ctx context.Context, p policy.Principal, req *CreateCategoryRequest) (*model.Category, error)
	Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateCategoryRequest) (*model.Category, error)
	Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Category, error)
	List(ctx context.Context, p policy.Principal) ([]model.Category, error)
}

type CreateCategoryRequest struct {
	Name        string     `json:"name" validate:"required,max=100"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id" validate:"omitempty,uuid_required"`
}

type UpdateCategoryRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id" validate:"omitempty,uuid_required"`
	// ClearParent moves the category back to the root. It cannot be combined with ParentID.
	ClearParent bool `json:"clear_parent" validate:"excluded_with=ParentID"`
}

type categoryService struct {
	store  repository.Store
	loader *cache.Loader
	ttl    CacheTTLs
	events EventPublisher
}

func NewCategoryService(store repository.Store, loader *cache.Loader, ttl CacheTTLs, events EventPublisher) CategoryService {
	if events == nil {
		events = nopEvents{}
	}
	return &categoryService{store: store, loader: loader, ttl: ttl, events: events}
}

func nameConflict(name string) error {
	return apperror.Conflict("Category with name '%s' already exists", name)
}

func saveCategoryErr(err error, name string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return nameConflict(name)
	case errors.Is(err, repository.ErrForeignKey):
		return apperror.NotFound("Parent category not found")
	}
	return apperror.Database("failed to save category", err)
}

func (s *categoryService) ensureNameFree(ctx context.Context, tx repository.Store, ownerID uuid.UUID, name string, self uuid.UUID) error {
	existing, err := tx.Categories().FindByOwnerAndName(ctx, ownerID, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return apperror.Database("failed to check category name", err)
	case existing.ID != self:
		return nameConflict(name)
	}
	return nil
}

// checkParent verifies that parentID is a live category of ownerID and that
// attaching self under it does not close a cycle.
func (s *categoryService) checkParent(ctx context.Context, tx repository.Store, ownerID, parentID, self uuid.UUID) error {
	if parentID == self {
		return apperror.Validation("a category cannot be its own parent")
	}
	next := parentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		parent, err := tx.Categories().FindByID(ctx, next)
		if err != nil {
			return lookupErr(err, "Parent category")
		}
		if depth == 0 && parent.OwnerID != ownerID {
			return apperror.NotFound("Parent category not found")
		}
		if parent.ParentID == nil {
			return nil
		}
		if *parent.ParentID == self {
			return apperror.Validation("a category cannot be nested under its own descendant")
		}
		next = *parent.ParentID
	}
	return apperror.Validation("category tree is too deep")
}

func (s *categoryService) Create(ctx context.Context, p policy.Principal, req *CreateCategoryRequest) (*model.Category, error) {
	if err := policy.Authorize(p, policy.CategoryCreate, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     p.UserID,
		ParentID:    req.ParentID,
	}
	category.CreatedBy = actor(p)
	category.UpdatedBy = actor(p)

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if req.ParentID != nil {
			if err := s.checkParent(ctx, tx, p.UserID, *req.ParentID, uuid.Nil); err != nil {
				return err
			}
		}
		if err := s.ensureNameFree(ctx, tx, p.UserID, req.Name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Categories().Create(ctx, category); err != nil {
			return saveCategoryErr(err, req.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, category, false)
	s.publish("created", category, p)
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateCategoryRequest) (*model.Category, error) {
	if _, ok := policy.Allowed(p, policy.CategoryUpdate); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.CategoryUpdate)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var category *model.Category
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		category, err = tx.Categories().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Category")
		}
		if err := authorizeOwned(p, policy.CategoryUpdate, category.OwnerID, "Category"); err != nil {
			return err
		}

		if req.Name != nil && *req.Name != category.Name {
			if err := s.ensureNameFree(ctx, tx, category.OwnerID, *req.Name, category.ID); err != nil {
				return err
			}
			category.Name = *req.Name
		}
		if req.Description != nil {
			category.Description = *req.Description
		}
		switch {
		case req.ClearParent:
			category.ParentID = nil
		case req.ParentID != nil:
			if err := s.checkParent(ctx, tx, category.OwnerID, *req.ParentID, category.ID); err != nil {
				return err
			}
			category.ParentID = req.ParentID
		}
		category.UpdatedBy = actor(p)

		if err := tx.Categories().Update(ctx, category); err != nil {
			return saveCategoryErr(err, category.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, category, true)
	s.publish("updated", category, p)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, p policy.Principal, id uuid.UUID) error {
	if _, ok := policy.Allowed(p, policy.CategoryDelete); !ok {
		return apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.CategoryDelete)
	}

	var category *model.Category
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		category, err = tx.Categories().FindByID(ctx, id)
		if err != nil {
			return lookupErr(err, "Category")
		}
		if err := authorizeOwned(p, policy.CategoryDelete, category.OwnerID, "Category"); err != nil {
			return err
		}
		n, err := tx.Categories().CountProducts(ctx, id)
		if err != nil {
			return apperror.Database("failed to count products", err)
		}
		if n > 0 {
			return apperror.Conflict("Category '%s' still has %d product(s)", category.Name, n)
		}
		children, err := tx.Categories().CountChildren(ctx, id)
		if err != nil {
			return apperror.Database("failed to count subcategories", err)
		}
		if children > 0 {
			return apperror.Conflict("Category '%s' still has %d subcategory(ies)", category.Name, children)
		}
		if err := tx.Categories().Delete(ctx, id, actor(p)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound("Category not found")
			}
			return apperror.Database("failed to delete category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, category, true)
	s.publish("deleted", category, p)
	return nil
}

func (s *categoryService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Category, error) {
	category, err := cache.ReadThrough(ctx, s.loader, cache.CategoryKey(id), s.ttl.Category,
		func(ctx context.Context) (*model.Category, error) {
			return s.store.Categories().FindByID(ctx, id)
		})
	if err != nil {
		return nil, lookupErr(err, "Category")
	}
	scope, ok := policy.Allowed(p, policy.CategoryView)
	if !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.CategoryView)
	}
	if scope == policy.ScopeOwn && category.OwnerID != p.UserID {
		return nil, apperror.NotFound("Category not found")
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context, p policy.Principal) ([]model.Category, error) {
	scope, ok := policy.Allowed(p, policy.CategoryView)
	if !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.CategoryView)
	}

	key, fetch := cache.AllCategoriesKey, s.store.Categories().FindAll
	if scope == policy.ScopeOwn {
		key = cache.OwnerCategoriesKey(p.UserID)
		fetch = func(ctx context.Context) ([]model.Category, error) {
			return s.store.Categories().FindByOwner(ctx, p.UserID)
		}
	}
	categories, err := cache.ReadThrough(ctx, s.loader, key, s.ttl.Category, fetch)
	if err != nil {
		return nil, apperror.Database("failed to list categories", err)
	}
	return categories, nil
}

// invalidate drops the category read models. Product snapshots embed their
// category, so a rename or delete also drops every cached product.
func (s *categoryService) invalidate(ctx context.Context, category *model.Category, touchesProducts bool) {
	c := s.loader.Cache()
	c.Delete(ctx,
		cache.CategoryKey(category.ID),
		cache.OwnerCategoriesKey(category.OwnerID),
		cache.AllCategoriesKey,
	)
	if touchesProducts {
		c.Delete(ctx, cache.AllProductsKey)
		c.DeletePattern(ctx, cache.ProductKeyPrefix)
		c.DeletePattern(ctx, cache.OwnerKeyPrefix)
	}
}

func (s *categoryService) publish(action string, category *model.Category, p policy.Principal) {
	s.events.Publish(ws.Event{
		Type:   ws.EventCategoryChanged,
		Action: action,
		Payload: map[string]interface{}{
			"id":       category.ID,
			"name":     category.Name,
			"owner_id": category.OwnerID,
		},
		Message: fmt.Sprintf("%s %s category '%s'", p.Email, action, category.Name),
	})
}
