package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several of them inside
// one database transaction.
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Orders() OrderRepository
	Addresses() AddressRepository
	Carts() CartRepository
	Wishlists() WishlistRepository
	Reviews() ReviewRepository
	Stats() StatsRepository

	// Transaction runs fn against a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db}
}

func (s *gormStore) Users() UserRepository          { return NewUserRepo(s.db) }
func (s *gormStore) Categories() CategoryRepository { return NewCategoryRepo(s.db) }
func (s *gormStore) Products() ProductRepository    { return NewProductRepo(s.db) }
func (s *gormStore) Orders() OrderRepository        { return NewOrderRepo(s.db) }
func (s *gormStore) Addresses() AddressRepository   { return NewAddressRepo(s.db) }
func (s *gormStore) Carts() CartRepository          { return NewCartRepo(s.db) }
func (s *gormStore) Wishlists() WishlistRepository  { return NewWishlistRepo(s.db) }
func (s *gormStore) Reviews() ReviewRepository      { return NewReviewRepo(s.db) }
func (s *gormStore) Stats() StatsRepository         { return NewStatsRepo(s.db) }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{tx})
	})
}
