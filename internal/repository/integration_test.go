//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-ecom-api/internal/model"
	"go-ecom-api/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// setupTestDB starts a PostgreSQL container and migrates every table.
func setupTestDB(t *testing.T) *gorm.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.ConnectDB(connStr)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return db
}

type seeded struct {
	owner    *model.User
	category *model.Category
	product  *model.Product
}

func seed(t *testing.T, store Store, email string) seeded {
	ctx := context.Background()

	owner := &model.User{Email: email, Password: "x", Name: "Seller", Role: model.RoleSeller, IsActive: true}
	require.NoError(t, store.Users().Create(ctx, owner))

	cat := &model.Category{Name: "Books", OwnerID: owner.ID}
	require.NoError(t, store.Categories().Create(ctx, cat))

	p := &model.Product{
		Name:          "Go in Action",
		Price:         decimal.RequireFromString("25.00"),
		StockQuantity: 5,
		SKU:           "BOOK-1",
		IsActive:      true,
		CategoryID:    cat.ID,
		OwnerID:       owner.ID,
	}
	require.NoError(t, store.Products().Create(ctx, p))
	return seeded{owner: owner, category: cat, product: p}
}

func TestPostgresStore(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	s := seed(t, store, "seller@shop.test")

	t.Run("duplicate email maps to ErrDuplicate", func(t *testing.T) {
		err := store.Users().Create(ctx, &model.User{Email: "seller@shop.test", Password: "x", Name: "Dup", Role: model.RoleUser})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("sku is unique per owner until soft delete", func(t *testing.T) {
		dup := &model.Product{
			Name: "Copy", Price: decimal.NewFromInt(1), SKU: "BOOK-1",
			CategoryID: s.category.ID, OwnerID: s.owner.ID, IsActive: true,
		}
		assert.ErrorIs(t, store.Products().Create(ctx, dup), ErrDuplicate)

		other := seed(t, store, "other@shop.test")
		assert.Equal(t, "BOOK-1", other.product.SKU)

		require.NoError(t, store.Products().Delete(ctx, other.product.ID, "test"))
		_, err := store.Products().FindByID(ctx, other.product.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		again := &model.Product{
			Name: "Reissue", Price: decimal.NewFromInt(3), SKU: "BOOK-1",
			CategoryID: other.category.ID, OwnerID: other.owner.ID, IsActive: true,
		}
		assert.NoError(t, store.Products().Create(ctx, again))
	})

	t.Run("unknown category maps to ErrForeignKey", func(t *testing.T) {
		p := &model.Product{
			Name: "Orphan", Price: decimal.NewFromInt(1), SKU: "ORPHAN",
			CategoryID: uuid.New(), OwnerID: s.owner.ID, IsActive: true,
		}
		assert.ErrorIs(t, store.Products().Create(ctx, p), ErrForeignKey)
	})

	t.Run("stock never goes negative", func(t *testing.T) {
		err := store.Products().AdjustStock(ctx, s.product.ID, -6, "test")
		require.Error(t, err)

		p, err := store.Products().FindByID(ctx, s.product.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, p.StockQuantity)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.Transaction(ctx, func(tx Store) error {
			locked, err := tx.Products().FindForUpdate(ctx, []uuid.UUID{s.product.ID, uuid.New()})
			require.NoError(t, err)
			require.Len(t, locked, 1)

			require.NoError(t, tx.Products().AdjustStock(ctx, s.product.ID, -2, "test"))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		p, err := store.Products().FindByID(ctx, s.product.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, p.StockQuantity)
	})

	t.Run("catalog stats skip deleted products", func(t *testing.T) {
		stats, err := store.Stats().CatalogStats(ctx, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, stats.TotalProducts)
		assert.EqualValues(t, 2, stats.LowStockCount)
		assert.True(t, decimal.RequireFromString("125.00").Equal(stats.InventoryValue), stats.InventoryValue.String())
	})
}
