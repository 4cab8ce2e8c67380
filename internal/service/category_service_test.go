package service

import (
	"fmt"
	"testing"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryNameIsUniquePerOwner(t *testing.T) {
	f := newFixture(t)
	other := f.addUser("other-seller@shop.test", model.RoleSeller)
	f.category(f.seller, "Books")

	_, err := f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Books"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = f.categories.Create(f.ctx, other, &CreateCategoryRequest{Name: "Books"})
	assert.NoError(t, err)

	_, err = f.categories.Create(f.ctx, f.buyer, &CreateCategoryRequest{Name: "Mine"})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, 2, f.store.Count("categories"))
}

func TestCategoryParentRules(t *testing.T) {
	f := newFixture(t)
	other := f.addUser("other-seller@shop.test", model.RoleSeller)
	root := f.category(f.seller, "Root")
	child, err := f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *child.ParentID)

	_, err = f.categories.Update(f.ctx, f.seller, root.ID, &UpdateCategoryRequest{ParentID: &root.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.categories.Update(f.ctx, f.seller, root.ID, &UpdateCategoryRequest{ParentID: &child.ID})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.categories.Create(f.ctx, other, &CreateCategoryRequest{Name: "Sneaky", ParentID: &root.ID})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	missing := uuid.New()
	_, err = f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteCategoryWithProducts(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Books")
	p := f.product(f.seller, cat.ID, "BK", "1.00", 1)

	err := f.categories.Delete(f.ctx, f.seller, cat.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	require.NoError(t, f.products.Delete(f.ctx, f.seller, p.ID))
	require.NoError(t, f.categories.Delete(f.ctx, f.seller, cat.ID))

	_, err = f.categories.Get(f.ctx, f.seller, cat.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRenameCategoryRefreshesProductSnapshots(t *testing.T) {
	f := newFixture(t)
	cat := f.category(f.seller, "Books")
	p := f.product(f.seller, cat.ID, "BK", "1.00", 1)

	cached, err := f.products.Get(f.ctx, f.buyer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", cached.Category.Name)
	_, err = f.products.List(f.ctx, f.seller)
	require.NoError(t, err)
	_, err = f.categories.List(f.ctx, f.seller)
	require.NoError(t, err)

	name := "Novels"
	_, err = f.categories.Update(f.ctx, f.seller, cat.ID, &UpdateCategoryRequest{Name: &name})
	require.NoError(t, err)

	assert.False(t, f.cache.has(cache.ProductKey(p.ID)))
	assert.False(t, f.cache.has(cache.OwnerProductsKey(f.seller.UserID)))
	assert.False(t, f.cache.has(cache.OwnerCategoriesKey(f.seller.UserID)))

	fresh, err := f.products.Get(f.ctx, f.buyer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Novels", fresh.Category.Name)
}

func TestCategoryVisibility(t *testing.T) {
	f := newFixture(t)
	other := f.addUser("other-seller@shop.test", model.RoleSeller)
	mine := f.category(f.seller, "Books")
	theirs := f.category(other, "Toys")

	sellerList, err := f.categories.List(f.ctx, f.seller)
	require.NoError(t, err)
	require.Len(t, sellerList, 1)
	assert.Equal(t, mine.ID, sellerList[0].ID)

	buyerList, err := f.categories.List(f.ctx, f.buyer)
	require.NoError(t, err)
	assert.Len(t, buyerList, 2)

	_, err = f.categories.Get(f.ctx, f.seller, theirs.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	got, err := f.categories.Get(f.ctx, f.buyer, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toys", got.Name)

	name := "Mine now"
	_, err = f.categories.Update(f.ctx, f.seller, theirs.ID, &UpdateCategoryRequest{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, f.categories.Delete(f.ctx, f.buyer, theirs.ID), apperror.ErrForbidden)
}

func TestCategoryListCacheDroppedOnCreate(t *testing.T) {
	f := newFixture(t)
	f.category(f.seller, "Books")

	list, err := f.categories.List(f.ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, f.cache.has(cache.AllCategoriesKey))

	f.category(f.seller, "Music")
	list, err = f.categories.List(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCategoryNameRaceMapsToConflict(t *testing.T) {
	f := newFixture(t)
	books := f.category(f.seller, "Books")
	dup := fmt.Errorf("%w: idx_categories_owner_name", repository.ErrDuplicate)

	f.store.FailOn("categories.Create", dup)
	_, err := f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Music"})
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 1, f.store.Count("categories"))

	name := "Films"
	f.store.FailOn("categories.Update", dup)
	_, err = f.categories.Update(f.ctx, f.seller, books.ID, &UpdateCategoryRequest{Name: &name})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	got, err := f.categories.Get(f.ctx, f.seller, books.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", got.Name)
}

func TestMoveCategoryBackToRoot(t *testing.T) {
	f := newFixture(t)
	root := f.category(f.seller, "Root")
	child, err := f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)

	_, err = f.categories.Update(f.ctx, f.seller, child.ID, &UpdateCategoryRequest{ParentID: &root.ID, ClearParent: true})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// Omitting parent_id keeps the current parent.
	desc := "nested"
	kept, err := f.categories.Update(f.ctx, f.seller, child.ID, &UpdateCategoryRequest{Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, kept.ParentID)
	assert.Equal(t, root.ID, *kept.ParentID)

	moved, err := f.categories.Update(f.ctx, f.seller, child.ID, &UpdateCategoryRequest{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)

	got, err := f.store.Categories().FindByID(f.ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID)
}

func TestDeleteCategoryWithChildren(t *testing.T) {
	f := newFixture(t)
	root := f.category(f.seller, "Root")
	child, err := f.categories.Create(f.ctx, f.seller, &CreateCategoryRequest{Name: "Child", ParentID: &root.ID})
	require.NoError(t, err)

	err = f.categories.Delete(f.ctx, f.seller, root.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = f.categories.Get(f.ctx, f.seller, root.ID)
	require.NoError(t, err)

	require.NoError(t, f.categories.Delete(f.ctx, f.seller, child.ID))
	assert.NoError(t, f.categories.Delete(f.ctx, f.seller, root.ID))
}
