// Package memstore is an in-memory repository.Store used by service and
// handler tests. It enforces the same unique and foreign-key rules as the
// Postgres schema and rolls a failed transaction back to a snapshot.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-ecom-api/internal/model"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	st   *state
	inTx bool
}

type state struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	clock time.Time
	fail  map[string]error
	t     tables
}

type tables struct {
	users      map[uuid.UUID]model.User
	categories map[uuid.UUID]model.Category
	products   map[uuid.UUID]model.Product
	orders     map[uuid.UUID]model.Order
	orderItems map[uuid.UUID]model.OrderItem
	addresses  map[uuid.UUID]model.Address
	cart       map[uuid.UUID]model.CartItem
	wishlist   map[uuid.UUID]model.WishlistItem
	reviews    map[uuid.UUID]model.Review
}

func New() *Store {
	return &Store{st: &state{
		clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		fail:  map[string]error{},
		t: tables{
			users:      map[uuid.UUID]model.User{},
			categories: map[uuid.UUID]model.Category{},
			products:   map[uuid.UUID]model.Product{},
			orders:     map[uuid.UUID]model.Order{},
			orderItems: map[uuid.UUID]model.OrderItem{},
			addresses:  map[uuid.UUID]model.Address{},
			cart:       map[uuid.UUID]model.CartItem{},
			wishlist:   map[uuid.UUID]model.WishlistItem{},
			reviews:    map[uuid.UUID]model.Review{},
		},
	}}
}

// FailOn makes the next call to op return err. Ops are named
// "<table>.<method>", e.g. "orders.Create".
func (s *Store) FailOn(op string, err error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.fail[op] = err
}

// Count returns the number of rows in table, soft-deleted rows included.
func (s *Store) Count(table string) int {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	switch table {
	case "users":
		return len(s.st.t.users)
	case "categories":
		return len(s.st.t.categories)
	case "products":
		return len(s.st.t.products)
	case "orders":
		return len(s.st.t.orders)
	case "order_items":
		return len(s.st.t.orderItems)
	case "addresses":
		return len(s.st.t.addresses)
	case "cart_items":
		return len(s.st.t.cart)
	case "wishlist_items":
		return len(s.st.t.wishlist)
	case "reviews":
		return len(s.st.t.reviews)
	}
	panic("memstore: unknown table " + table)
}

func (s *Store) Users() repository.UserRepository          { return users{s.st} }
func (s *Store) Categories() repository.CategoryRepository { return categories{s.st} }
func (s *Store) Products() repository.ProductRepository    { return products{s.st} }
func (s *Store) Orders() repository.OrderRepository        { return orders{s.st} }
func (s *Store) Addresses() repository.AddressRepository   { return addresses{s.st} }
func (s *Store) Carts() repository.CartRepository          { return carts{s.st} }
func (s *Store) Wishlists() repository.WishlistRepository  { return wishlists{s.st} }
func (s *Store) Reviews() repository.ReviewRepository      { return reviews{s.st} }
func (s *Store) Stats() repository.StatsRepository         { return stats{s.st} }

func (s *Store) Transaction(_ context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.st.txMu.Lock()
	defer s.st.txMu.Unlock()

	s.st.mu.Lock()
	snapshot := s.st.t.clone()
	s.st.mu.Unlock()

	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.mu.Lock()
		s.st.t = snapshot
		s.st.mu.Unlock()
		return err
	}
	return nil
}

func (t tables) clone() tables {
	return tables{
		users:      cloneMap(t.users),
		categories: cloneMap(t.categories),
		products:   cloneMap(t.products),
		orders:     cloneMap(t.orders),
		orderItems: cloneMap(t.orderItems),
		addresses:  cloneMap(t.addresses),
		cart:       cloneMap(t.cart),
		wishlist:   cloneMap(t.wishlist),
		reviews:    cloneMap(t.reviews),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// lock takes the data mutex and consumes a scheduled failure for op.
func (st *state) lock(op string) error {
	st.mu.Lock()
	if err, ok := st.fail[op]; ok {
		delete(st.fail, op)
		return err
	}
	return nil
}

func (st *state) tick() time.Time {
	st.clock = st.clock.Add(time.Millisecond)
	return st.clock
}

func (st *state) stamp(b *model.BaseModel) {
	now := st.tick()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrDuplicate, constraint)
}

func foreignKey(constraint string) error {
	return fmt.Errorf("%w: %s", repository.ErrForeignKey, constraint)
}

func sortByCreated[T any](items []T, created func(T) time.Time) []T {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).Before(created(items[j])) })
	return items
}

func ptr[T any](v T) *T { return &v }
