// Package policy is the single authorization gate. Every mutating service
// operation asks Authorize before touching the store.
package policy

import (
	"errors"
	"fmt"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/model"

	"github.com/google/uuid"
)

// Action is a privilege code, e.g. "product:create".
type Action string

const (
	ProductCreate Action = "product:create"
	ProductUpdate Action = "product:update"
	ProductDelete Action = "product:delete"
	ProductView   Action = "product:view"
	ProductBrowse Action = "product:browse" // active products of every owner

	CategoryCreate Action = "category:create"
	CategoryUpdate Action = "category:update"
	CategoryDelete Action = "category:delete"
	CategoryView   Action = "category:view"

	OrderCreate       Action = "order:create"
	OrderView         Action = "order:view"
	OrderPay          Action = "order:pay"
	OrderCancel       Action = "order:cancel"
	OrderUpdateStatus Action = "order:update_status"

	AddressManage  Action = "address:manage"
	CartManage     Action = "cart:manage"
	WishlistManage Action = "wishlist:manage"
	ReviewWrite    Action = "review:write"

	UserView        Action = "user:view"
	UserChangeRole  Action = "user:change_role"
	ReportView      Action = "report:view"
	EventsSubscribe Action = "events:subscribe"
)

// ErrNotOwner marks a denial caused by ownership rather than by role.
// Callers that hide foreign records match it to answer NotFound instead.
var ErrNotOwner = errors.New("not the owner")

// Scope says whose records a grant covers.
type Scope int

const (
	ScopeOwn Scope = iota + 1
	ScopeAny
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   model.Role
}

type grants map[Action]Scope

func own(actions ...Action) grants {
	g := grants{}
	for _, a := range actions {
		g[a] = ScopeOwn
	}
	return g
}

func (g grants) with(scope Scope, actions ...Action) grants {
	for _, a := range actions {
		g[a] = scope
	}
	return g
}

var customerActions = []Action{
	OrderCreate, OrderView, OrderPay, OrderCancel,
	AddressManage, CartManage, WishlistManage, ReviewWrite,
}

var allActions = []Action{
	ProductCreate, ProductUpdate, ProductDelete, ProductView, ProductBrowse,
	CategoryCreate, CategoryUpdate, CategoryDelete, CategoryView,
	OrderCreate, OrderView, OrderPay, OrderCancel, OrderUpdateStatus,
	AddressManage, CartManage, WishlistManage, ReviewWrite,
	UserView, UserChangeRole, ReportView, EventsSubscribe,
}

// table maps each role to its grants.
var table = map[model.Role]grants{
	model.RoleAdmin: grants{}.with(ScopeAny, allActions...),
	model.RoleSeller: own(customerActions...).
		with(ScopeOwn, ProductCreate, ProductUpdate, ProductDelete, ProductView,
			CategoryCreate, CategoryUpdate, CategoryDelete, CategoryView).
		with(ScopeAny, ProductBrowse),
	model.RoleUser: own(customerActions...).
		with(ScopeAny, ProductBrowse, CategoryView),
}

// Allowed returns the scope granted to p for action.
func Allowed(p Principal, action Action) (Scope, bool) {
	scope, ok := table[p.Role][action]
	return scope, ok
}

// Authorize checks that p may perform action on a record owned by ownerID.
func Authorize(p Principal, action Action, ownerID uuid.UUID) error {
	scope, ok := Allowed(p, action)
	if !ok {
		return apperror.Forbidden("role '%s' is not allowed to %s", p.Role, action)
	}
	if scope == ScopeAny || ownerID == p.UserID {
		return nil
	}
	return fmt.Errorf("%w: %w", apperror.Forbidden("you do not own this resource"), ErrNotOwner)
}

// Actions lists the privilege codes granted to role, for clients that gate UI.
func Actions(role model.Role) []string {
	out := make([]string, 0, len(table[role]))
	for _, a := range allActions {
		if _, ok := table[role][a]; ok {
			out = append(out, string(a))
		}
	}
	return out
}
