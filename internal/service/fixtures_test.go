package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/notify"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository/memstore"
	"go-ecom-api/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// recordingCache is an in-process cache.Cache that remembers deletions.
type recordingCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{data: map[string][]byte{}}
}

func (c *recordingCache) Get(_ context.Context, key string) cache.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return cache.Result{Status: cache.Miss}
	}
	return cache.Result{Status: cache.Hit, Value: v}
}

func (c *recordingCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(value)
	if err == nil {
		c.data[key] = b
	}
}

func (c *recordingCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deleted = append(c.deleted, k)
	}
}

func (c *recordingCache) DeletePattern(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
			c.deleted = append(c.deleted, k)
		}
	}
}

func (c *recordingCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []ws.Event
}

func (e *recordingEvents) Publish(ev ws.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *recordingEvents) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev.Type)
	}
	return out
}

var testTTLs = CacheTTLs{Product: 5 * time.Minute, Category: time.Hour}

// fixture wires every service to one in-memory store.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *memstore.Store
	cache  *recordingCache
	mail   *recordingPublisher
	events *recordingEvents

	products   ProductService
	categories CategoryService
	orders     OrderService
	addresses  AddressService
	carts      CartService
	wishlists  WishlistService
	reviews    ReviewService
	users      UserService
	dashboard  DashboardService

	admin  policy.Principal
	seller policy.Principal
	buyer  policy.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  memstore.New(),
		cache:  newRecordingCache(),
		mail:   &recordingPublisher{},
		events: &recordingEvents{},
	}
	loader := cache.NewLoader(f.cache)
	f.products = NewProductService(f.store, loader, testTTLs, f.events)
	f.categories = NewCategoryService(f.store, loader, testTTLs, f.events)
	f.orders = NewOrderService(f.store, f.cache, f.mail, f.events)
	f.addresses = NewAddressService(f.store)
	f.carts = NewCartService(f.store)
	f.wishlists = NewWishlistService(f.store)
	f.reviews = NewReviewService(f.store)
	f.users = NewUserService(f.store.Users())
	f.dashboard = NewDashboardService(f.store)

	f.admin = f.addUser("admin@shop.test", model.RoleAdmin)
	f.seller = f.addUser("seller@shop.test", model.RoleSeller)
	f.buyer = f.addUser("buyer@shop.test", model.RoleUser)
	return f
}

func (f *fixture) addUser(email string, role model.Role) policy.Principal {
	f.t.Helper()
	u := &model.User{Email: email, Name: strings.Split(email, "@")[0], Role: role, IsActive: true, Password: "x"}
	require.NoError(f.t, f.store.Users().Create(f.ctx, u))
	return policy.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (f *fixture) category(owner policy.Principal, name string) *model.Category {
	f.t.Helper()
	c, err := f.categories.Create(f.ctx, owner, &CreateCategoryRequest{Name: name})
	require.NoError(f.t, err)
	return c
}

func (f *fixture) product(owner policy.Principal, categoryID uuid.UUID, sku, price string, stock int) *model.Product {
	f.t.Helper()
	p, err := f.products.Create(f.ctx, owner, &CreateProductRequest{
		Name:          "Product " + sku,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		SKU:           sku,
		CategoryID:    categoryID,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) address(owner policy.Principal) *model.Address {
	f.t.Helper()
	a, err := f.addresses.Create(f.ctx, owner, &CreateAddressRequest{
		StreetAddress: "1 Main St",
		City:          "Springfield",
		Country:       "US",
	})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) stock(id uuid.UUID) int {
	f.t.Helper()
	p, err := f.store.Products().FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return p.StockQuantity
}
