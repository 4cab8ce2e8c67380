package memstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"go-ecom-api/internal/model"
	"go-ecom-api/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type users struct{ st *state }

func (r users) Create(_ context.Context, u *model.User) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.Create"); err != nil {
		return err
	}
	for _, x := range r.st.t.users {
		if x.Email == u.Email {
			return duplicate("idx_users_email")
		}
	}
	r.st.stamp(&u.BaseModel)
	r.st.t.users[u.ID] = *u
	return nil
}

func (r users) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.FindByID"); err != nil {
		return nil, err
	}
	u, ok := r.st.t.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.st.t.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r users) FindByRoles(_ context.Context, roles ...model.Role) ([]model.User, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.FindByRoles"); err != nil {
		return nil, err
	}
	var out []model.User
	for _, u := range r.st.t.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, u)
				break
			}
		}
	}
	return sortByCreated(out, func(u model.User) time.Time { return u.CreatedAt }), nil
}

func (r users) Update(_ context.Context, u *model.User) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.Update"); err != nil {
		return err
	}
	for id, x := range r.st.t.users {
		if id != u.ID && x.Email == u.Email {
			return duplicate("idx_users_email")
		}
	}
	r.st.stamp(&u.BaseModel)
	r.st.t.users[u.ID] = *u
	return nil
}

func (r users) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.UpdatePassword"); err != nil {
		return err
	}
	u, ok := r.st.t.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hashed
	u.UpdatedAt = r.st.tick()
	r.st.t.users[id] = u
	return nil
}

func (r users) UpdateRole(_ context.Context, id uuid.UUID, role model.Role, updatedBy string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.UpdateRole"); err != nil {
		return err
	}
	u, ok := r.st.t.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	u.UpdatedBy = updatedBy
	u.UpdatedAt = r.st.tick()
	r.st.t.users[id] = u
	return nil
}

func (r users) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("users.CountCreatedBetween"); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range r.st.t.users {
		if !u.CreatedAt.Before(from) && u.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

type categories struct{ st *state }

func (r categories) checkRefs(c *model.Category) error {
	if _, ok := r.st.t.users[c.OwnerID]; !ok {
		return foreignKey("fk_categories_owner")
	}
	if c.ParentID != nil {
		if p, ok := r.st.t.categories[*c.ParentID]; !ok || p.DeletedAt.Valid {
			return foreignKey("fk_categories_parent")
		}
	}
	for id, x := range r.st.t.categories {
		if id != c.ID && !x.DeletedAt.Valid && x.OwnerID == c.OwnerID && x.Name == c.Name {
			return duplicate("idx_categories_owner_name")
		}
	}
	return nil
}

func (r categories) Create(_ context.Context, c *model.Category) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.Create"); err != nil {
		return err
	}
	if err := r.checkRefs(c); err != nil {
		return err
	}
	r.st.stamp(&c.BaseModel)
	row := *c
	row.Owner, row.Parent = nil, nil
	r.st.t.categories[c.ID] = row
	return nil
}

func (r categories) FindByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.FindByID"); err != nil {
		return nil, err
	}
	c, ok := r.st.t.categories[id]
	if !ok || c.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r categories) list(owner *uuid.UUID) []model.Category {
	out := []model.Category{}
	for _, c := range r.st.t.categories {
		if c.DeletedAt.Valid || (owner != nil && c.OwnerID != *owner) {
			continue
		}
		out = append(out, c)
	}
	return sortByCreated(out, func(c model.Category) time.Time { return c.CreatedAt })
}

func (r categories) FindAll(_ context.Context) ([]model.Category, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.FindAll"); err != nil {
		return nil, err
	}
	return r.list(nil), nil
}

func (r categories) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Category, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.FindByOwner"); err != nil {
		return nil, err
	}
	return r.list(&ownerID), nil
}

func (r categories) FindByOwnerAndName(_ context.Context, ownerID uuid.UUID, name string) (*model.Category, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.FindByOwnerAndName"); err != nil {
		return nil, err
	}
	for _, c := range r.list(&ownerID) {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r categories) Update(_ context.Context, c *model.Category) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.Update"); err != nil {
		return err
	}
	if err := r.checkRefs(c); err != nil {
		return err
	}
	r.st.stamp(&c.BaseModel)
	row := *c
	row.Owner, row.Parent = nil, nil
	r.st.t.categories[c.ID] = row
	return nil
}

func (r categories) Delete(_ context.Context, id uuid.UUID, deletedBy string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.Delete"); err != nil {
		return err
	}
	c, ok := r.st.t.categories[id]
	if !ok || c.DeletedAt.Valid {
		return repository.ErrNotFound
	}
	c.DeletedAt = gorm.DeletedAt{Time: r.st.tick(), Valid: true}
	c.DeletedBy = deletedBy
	r.st.t.categories[id] = c
	return nil
}

func (r categories) CountProducts(_ context.Context, id uuid.UUID) (int64, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.CountProducts"); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.st.t.products {
		if p.CategoryID == id && !p.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

func (r categories) CountChildren(_ context.Context, id uuid.UUID) (int64, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("categories.CountChildren"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range r.st.t.categories {
		if c.ParentID != nil && *c.ParentID == id && !c.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

type products struct{ st *state }

var errNegativeStock = errors.New(`new row for relation "products" violates check constraint "chk_products_stock_quantity"`)

func (r products) checkRefs(p *model.Product) error {
	if _, ok := r.st.t.users[p.OwnerID]; !ok {
		return foreignKey("fk_products_owner")
	}
	if _, ok := r.st.t.categories[p.CategoryID]; !ok {
		return foreignKey("fk_products_category")
	}
	if p.StockQuantity < 0 {
		return errNegativeStock
	}
	for id, x := range r.st.t.products {
		if id != p.ID && !x.DeletedAt.Valid && x.OwnerID == p.OwnerID && x.SKU == p.SKU {
			return duplicate("idx_products_owner_sku")
		}
	}
	return nil
}

func (r products) withCategory(p model.Product) model.Product {
	if c, ok := r.st.t.categories[p.CategoryID]; ok && !c.DeletedAt.Valid {
		p.Category = &c
	}
	return p
}

func (r products) store(p *model.Product) {
	row := *p
	row.Category, row.Owner = nil, nil
	r.st.t.products[p.ID] = row
}

func (r products) Create(_ context.Context, p *model.Product) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.Create"); err != nil {
		return err
	}
	if err := r.checkRefs(p); err != nil {
		return err
	}
	r.st.stamp(&p.BaseModel)
	r.store(p)
	return nil
}

func (r products) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.FindByID"); err != nil {
		return nil, err
	}
	p, ok := r.st.t.products[id]
	if !ok || p.DeletedAt.Valid {
		return nil, repository.ErrNotFound
	}
	return ptr(r.withCategory(p)), nil
}

func (r products) list(owner *uuid.UUID) []model.Product {
	out := []model.Product{}
	for _, p := range r.st.t.products {
		if p.DeletedAt.Valid || (owner != nil && p.OwnerID != *owner) {
			continue
		}
		out = append(out, r.withCategory(p))
	}
	return sortByCreated(out, func(p model.Product) time.Time { return p.CreatedAt })
}

func (r products) FindAll(_ context.Context) ([]model.Product, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.FindAll"); err != nil {
		return nil, err
	}
	return r.list(nil), nil
}

func (r products) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.FindByOwner"); err != nil {
		return nil, err
	}
	return r.list(&ownerID), nil
}

func (r products) FindByOwnerAndSKU(_ context.Context, ownerID uuid.UUID, sku string) (*model.Product, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.FindByOwnerAndSKU"); err != nil {
		return nil, err
	}
	for _, p := range r.list(&ownerID) {
		if p.SKU == sku {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r products) FindForUpdate(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.FindForUpdate"); err != nil {
		return nil, err
	}
	var out []model.Product
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if p, ok := r.st.t.products[id]; ok && !p.DeletedAt.Valid && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r products) Update(_ context.Context, p *model.Product) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.Update"); err != nil {
		return err
	}
	if _, ok := r.st.t.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.checkRefs(p); err != nil {
		return err
	}
	r.st.stamp(&p.BaseModel)
	r.store(p)
	return nil
}

func (r products) AdjustStock(_ context.Context, id uuid.UUID, delta int, updatedBy string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.AdjustStock"); err != nil {
		return err
	}
	p, ok := r.st.t.products[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.StockQuantity+delta < 0 {
		return errNegativeStock
	}
	p.StockQuantity += delta
	p.UpdatedBy = updatedBy
	p.UpdatedAt = r.st.tick()
	r.st.t.products[id] = p
	return nil
}

func (r products) Delete(_ context.Context, id uuid.UUID, deletedBy string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("products.Delete"); err != nil {
		return err
	}
	p, ok := r.st.t.products[id]
	if !ok || p.DeletedAt.Valid {
		return repository.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: r.st.tick(), Valid: true}
	p.DeletedBy = deletedBy
	r.st.t.products[id] = p
	return nil
}

type orders struct{ st *state }

func (r orders) Create(_ context.Context, o *model.Order) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.Create"); err != nil {
		return err
	}
	if _, ok := r.st.t.users[o.UserID]; !ok {
		return foreignKey("fk_orders_user")
	}
	if _, ok := r.st.t.addresses[o.ShippingAddressID]; !ok {
		return foreignKey("fk_orders_shipping_address")
	}
	for _, it := range o.Items {
		if _, ok := r.st.t.products[it.ProductID]; !ok {
			return foreignKey("fk_order_items_product")
		}
	}
	r.st.stamp(&o.BaseModel)
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		r.st.stamp(&o.Items[i].BaseModel)
		row := o.Items[i]
		row.Product = nil
		r.st.t.orderItems[row.ID] = row
	}
	row := *o
	row.User, row.ShippingAddress, row.Items = nil, nil, nil
	r.st.t.orders[o.ID] = row
	return nil
}

func (r orders) items(orderID uuid.UUID, withProduct bool) []model.OrderItem {
	out := []model.OrderItem{}
	for _, it := range r.st.t.orderItems {
		if it.OrderID != orderID {
			continue
		}
		if withProduct {
			if p, ok := r.st.t.products[it.ProductID]; ok {
				it.Product = &p
			}
		}
		out = append(out, it)
	}
	return sortByCreated(out, func(it model.OrderItem) time.Time { return it.CreatedAt })
}

func (r orders) load(o model.Order) model.Order {
	o.Items = r.items(o.ID, true)
	if a, ok := r.st.t.addresses[o.ShippingAddressID]; ok {
		o.ShippingAddress = &a
	}
	return o
}

func (r orders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.FindByID"); err != nil {
		return nil, err
	}
	o, ok := r.st.t.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ptr(r.load(o)), nil
}

func (r orders) FindForUpdate(_ context.Context, id uuid.UUID) (*model.Order, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.FindForUpdate"); err != nil {
		return nil, err
	}
	o, ok := r.st.t.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Items = r.items(id, false)
	return &o, nil
}

func (r orders) list(user *uuid.UUID) []model.Order {
	out := []model.Order{}
	for _, o := range r.st.t.orders {
		if user != nil && o.UserID != *user {
			continue
		}
		out = append(out, r.load(o))
	}
	return sortByCreated(out, func(o model.Order) time.Time { return o.CreatedAt })
}

func (r orders) FindByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.FindByUser"); err != nil {
		return nil, err
	}
	return r.list(&userID), nil
}

func (r orders) FindAll(_ context.Context) ([]model.Order, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.FindAll"); err != nil {
		return nil, err
	}
	return r.list(nil), nil
}

func (r orders) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("orders.UpdateStatus"); err != nil {
		return err
	}
	o, ok := r.st.t.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	o.UpdatedBy = updatedBy
	o.UpdatedAt = r.st.tick()
	r.st.t.orders[id] = o
	return nil
}

type addresses struct{ st *state }

func (r addresses) Create(_ context.Context, a *model.Address) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.Create"); err != nil {
		return err
	}
	if _, ok := r.st.t.users[a.UserID]; !ok {
		return foreignKey("fk_addresses_user")
	}
	r.st.stamp(&a.BaseModel)
	r.st.t.addresses[a.ID] = *a
	return nil
}

func (r addresses) FindByID(_ context.Context, id uuid.UUID) (*model.Address, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.FindByID"); err != nil {
		return nil, err
	}
	a, ok := r.st.t.addresses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r addresses) FindByUser(_ context.Context, userID uuid.UUID) ([]model.Address, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.FindByUser"); err != nil {
		return nil, err
	}
	out := []model.Address{}
	for _, a := range r.st.t.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return sortByCreated(out, func(a model.Address) time.Time { return a.CreatedAt }), nil
}

func (r addresses) Update(_ context.Context, a *model.Address) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.Update"); err != nil {
		return err
	}
	r.st.stamp(&a.BaseModel)
	r.st.t.addresses[a.ID] = *a
	return nil
}

func (r addresses) Delete(_ context.Context, id uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.Delete"); err != nil {
		return err
	}
	if _, ok := r.st.t.addresses[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range r.st.t.orders {
		if o.ShippingAddressID == id {
			return foreignKey("fk_orders_shipping_address")
		}
	}
	delete(r.st.t.addresses, id)
	return nil
}

func (r addresses) ClearDefault(_ context.Context, userID, keepID uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("addresses.ClearDefault"); err != nil {
		return err
	}
	for id, a := range r.st.t.addresses {
		if a.UserID == userID && id != keepID && a.IsDefault {
			a.IsDefault = false
			r.st.t.addresses[id] = a
		}
	}
	return nil
}

type carts struct{ st *state }

func (r carts) Create(_ context.Context, it *model.CartItem) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.Create"); err != nil {
		return err
	}
	if _, ok := r.st.t.products[it.ProductID]; !ok {
		return foreignKey("fk_cart_items_product")
	}
	for _, x := range r.st.t.cart {
		if x.UserID == it.UserID && x.ProductID == it.ProductID {
			return duplicate("idx_cart_items_user_product")
		}
	}
	r.st.stamp(&it.BaseModel)
	row := *it
	row.Product = nil
	r.st.t.cart[it.ID] = row
	return nil
}

func (r carts) withProduct(it model.CartItem) model.CartItem {
	if p, ok := r.st.t.products[it.ProductID]; ok && !p.DeletedAt.Valid {
		it.Product = &p
	}
	return it
}

func (r carts) FindByID(_ context.Context, id uuid.UUID) (*model.CartItem, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.FindByID"); err != nil {
		return nil, err
	}
	it, ok := r.st.t.cart[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return ptr(r.withProduct(it)), nil
}

func (r carts) FindByUser(_ context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.FindByUser"); err != nil {
		return nil, err
	}
	out := []model.CartItem{}
	for _, it := range r.st.t.cart {
		if it.UserID == userID {
			out = append(out, r.withProduct(it))
		}
	}
	return sortByCreated(out, func(it model.CartItem) time.Time { return it.CreatedAt }), nil
}

func (r carts) FindByUserAndProduct(_ context.Context, userID, productID uuid.UUID) (*model.CartItem, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.FindByUserAndProduct"); err != nil {
		return nil, err
	}
	for _, it := range r.st.t.cart {
		if it.UserID == userID && it.ProductID == productID {
			return &it, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r carts) Update(_ context.Context, it *model.CartItem) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.Update"); err != nil {
		return err
	}
	r.st.stamp(&it.BaseModel)
	row := *it
	row.Product = nil
	r.st.t.cart[it.ID] = row
	return nil
}

func (r carts) Delete(_ context.Context, id uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.Delete"); err != nil {
		return err
	}
	if _, ok := r.st.t.cart[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.t.cart, id)
	return nil
}

func (r carts) ClearByUser(_ context.Context, userID uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("cart.ClearByUser"); err != nil {
		return err
	}
	for id, it := range r.st.t.cart {
		if it.UserID == userID {
			delete(r.st.t.cart, id)
		}
	}
	return nil
}

type wishlists struct{ st *state }

func (r wishlists) Create(_ context.Context, it *model.WishlistItem) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("wishlist.Create"); err != nil {
		return err
	}
	if _, ok := r.st.t.products[it.ProductID]; !ok {
		return foreignKey("fk_wishlist_items_product")
	}
	for _, x := range r.st.t.wishlist {
		if x.UserID == it.UserID && x.ProductID == it.ProductID {
			return duplicate("idx_wishlist_items_user_product")
		}
	}
	r.st.stamp(&it.BaseModel)
	row := *it
	row.Product = nil
	r.st.t.wishlist[it.ID] = row
	return nil
}

func (r wishlists) FindByID(_ context.Context, id uuid.UUID) (*model.WishlistItem, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("wishlist.FindByID"); err != nil {
		return nil, err
	}
	it, ok := r.st.t.wishlist[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r wishlists) FindByUser(_ context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("wishlist.FindByUser"); err != nil {
		return nil, err
	}
	out := []model.WishlistItem{}
	for _, it := range r.st.t.wishlist {
		if it.UserID != userID {
			continue
		}
		if p, ok := r.st.t.products[it.ProductID]; ok {
			it.Product = &p
		}
		out = append(out, it)
	}
	return sortByCreated(out, func(it model.WishlistItem) time.Time { return it.CreatedAt }), nil
}

func (r wishlists) Delete(_ context.Context, id uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("wishlist.Delete"); err != nil {
		return err
	}
	if _, ok := r.st.t.wishlist[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.t.wishlist, id)
	return nil
}

type reviews struct{ st *state }

func (r reviews) Create(_ context.Context, rv *model.Review) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("reviews.Create"); err != nil {
		return err
	}
	if _, ok := r.st.t.products[rv.ProductID]; !ok {
		return foreignKey("fk_reviews_product")
	}
	r.st.stamp(&rv.BaseModel)
	r.st.t.reviews[rv.ID] = *rv
	return nil
}

func (r reviews) FindByID(_ context.Context, id uuid.UUID) (*model.Review, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("reviews.FindByID"); err != nil {
		return nil, err
	}
	rv, ok := r.st.t.reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rv, nil
}

func (r reviews) FindByProduct(_ context.Context, productID uuid.UUID) ([]model.Review, error) {
	defer r.st.mu.Unlock()
	if err := r.st.lock("reviews.FindByProduct"); err != nil {
		return nil, err
	}
	out := []model.Review{}
	for _, rv := range r.st.t.reviews {
		if rv.ProductID == productID {
			out = append(out, rv)
		}
	}
	sortByCreated(out, func(rv model.Review) time.Time { return rv.CreatedAt })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r reviews) Update(_ context.Context, rv *model.Review) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("reviews.Update"); err != nil {
		return err
	}
	r.st.stamp(&rv.BaseModel)
	r.st.t.reviews[rv.ID] = *rv
	return nil
}

func (r reviews) Delete(_ context.Context, id uuid.UUID) error {
	defer r.st.mu.Unlock()
	if err := r.st.lock("reviews.Delete"); err != nil {
		return err
	}
	if _, ok := r.st.t.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.t.reviews, id)
	return nil
}
