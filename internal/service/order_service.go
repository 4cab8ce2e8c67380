package service

import (
	"context"
	"fmt"
	"log"

	"go-ecom-api/internal/apperror"
	"go-ecom-api/internal/cache"
	"go-ecom-api/internal/model"
	"go-ecom-api/internal/notify"
	"go-ecom-api/internal/policy"
	"go-ecom-api/internal/repository"
	"go-ecom-api/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	Create(ctx context.Context, p policy.Principal, req *CreateOrderRequest) (*model.Order, error)
	Checkout(ctx context.Context, p policy.Principal, req *CheckoutRequest) (*model.Order, error)
	Pay(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateOrderStatusRequest) (*model.Order, error)
	Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error)
	Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, p policy.Principal) ([]model.Order, error)
	ListAll(ctx context.Context, p policy.Principal) ([]model.Order, error)
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type CreateOrderRequest struct {
	ShippingAddressID uuid.UUID          `json:"shipping_address_id" validate:"uuid_required"`
	Items             []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CheckoutRequest struct {
	ShippingAddressID uuid.UUID `json:"shipping_address_id" validate:"uuid_required"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

type orderService struct {
	store     repository.Store
	cache     cache.Cache
	publisher notify.Publisher
	events    EventPublisher
}

func NewOrderService(store repository.Store, c cache.Cache, publisher notify.Publisher, events EventPublisher) OrderService {
	if events == nil {
		events = nopEvents{}
	}
	return &orderService{store: store, cache: c, publisher: publisher, events: events}
}

// placeOrder validates the request against locked product rows, snapshots
// prices, persists the order with its items and takes the stock. It must
// run inside a transaction.
func (s *orderService) placeOrder(ctx context.Context, tx repository.Store, p policy.Principal, addressID uuid.UUID, lines []OrderItemRequest) (*model.Order, []model.Product, error) {
	address, err := tx.Addresses().FindByID(ctx, addressID)
	if err != nil {
		return nil, nil, lookupErr(err, "Shipping address")
	}
	if address.UserID != p.UserID {
		return nil, nil, apperror.NotFound("Shipping address not found")
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	locked, err := tx.Products().FindForUpdate(ctx, ids)
	if err != nil {
		return nil, nil, apperror.Database("failed to lock products", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(locked))
	for _, product := range locked {
		byID[product.ID] = product
	}

	order := &model.Order{
		UserID:            p.UserID,
		Status:            model.OrderPending,
		ShippingAddressID: address.ID,
		TotalAmount:       decimal.Zero,
	}
	order.CreatedBy = actor(p)
	order.UpdatedBy = actor(p)

	need := map[uuid.UUID]int{}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, nil, apperror.NotFound("Product with id %s not found", line.ProductID)
		}
		if !product.IsActive {
			return nil, nil, apperror.Conflict("Product '%s' is not available", product.Name)
		}
		need[product.ID] += line.Quantity

		subtotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, model.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}
	for _, product := range locked {
		if product.StockQuantity < need[product.ID] {
			return nil, nil, apperror.Conflict("Insufficient stock for product '%s': %d available, %d requested",
				product.Name, product.StockQuantity, need[product.ID])
		}
	}

	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, nil, apperror.Database("failed to create order", err)
	}
	for _, product := range locked {
		if err := tx.Products().AdjustStock(ctx, product.ID, -need[product.ID], actor(p)); err != nil {
			return nil, nil, apperror.Database("failed to update stock", err)
		}
	}
	return order, locked, nil
}

func (s *orderService) Create(ctx context.Context, p policy.Principal, req *CreateOrderRequest) (*model.Order, error) {
	if err := policy.Authorize(p, policy.OrderCreate, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		products []model.Product
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		order, products, err = s.placeOrder(ctx, tx, p, req.ShippingAddressID, req.Items)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.afterPlace(ctx, order.ID, products)
}

func (s *orderService) Checkout(ctx context.Context, p policy.Principal, req *CheckoutRequest) (*model.Order, error) {
	if err := policy.Authorize(p, policy.OrderCreate, p.UserID); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		order    *model.Order
		products []model.Product
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		cart, err := tx.Carts().FindByUser(ctx, p.UserID)
		if err != nil {
			return apperror.Database("failed to load cart", err)
		}
		if len(cart) == 0 {
			return apperror.Validation("cart is empty")
		}
		lines := make([]OrderItemRequest, 0, len(cart))
		for _, item := range cart {
			lines = append(lines, OrderItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		order, products, err = s.placeOrder(ctx, tx, p, req.ShippingAddressID, lines)
		if err != nil {
			return err
		}
		if err := tx.Carts().ClearByUser(ctx, p.UserID); err != nil {
			return apperror.Database("failed to clear cart", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.afterPlace(ctx, order.ID, products)
}

// afterPlace runs once the order has committed: it re-reads the order so the
// response is exactly what was stored, then drops stale stock snapshots.
func (s *orderService) afterPlace(ctx context.Context, orderID uuid.UUID, products []model.Product) (*model.Order, error) {
	s.invalidateStock(ctx, products)

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err, "Order")
	}
	s.publish(ws.EventOrderCreated, "created", order)
	return order, nil
}

func (s *orderService) invalidateStock(ctx context.Context, products []model.Product) {
	if len(products) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(products))
	owners := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
		owners = append(owners, product.OwnerID)
	}
	invalidateProducts(ctx, s.cache, ids, owners)
}

// restoreStock puts the quantities of items back on the shelf.
func (s *orderService) restoreStock(ctx context.Context, tx repository.Store, items []model.OrderItem, by string) ([]model.Product, error) {
	give := map[uuid.UUID]int{}
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, seen := give[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		give[item.ProductID] += item.Quantity
	}
	locked, err := tx.Products().FindForUpdate(ctx, ids)
	if err != nil {
		return nil, apperror.Database("failed to lock products", err)
	}
	for _, id := range ids {
		if err := tx.Products().AdjustStock(ctx, id, give[id], by); err != nil {
			return nil, apperror.Database("failed to restore stock", err)
		}
	}
	return locked, nil
}

// transition locks the order, lets check decide the new status and persists
// it in one transaction. Cancelling an order that still holds stock returns
// that stock. It reports the products whose stock moved and whether the
// status changed at all.
func (s *orderService) transition(ctx context.Context, p policy.Principal, id uuid.UUID, check func(*model.Order) (bool, error)) ([]model.Product, bool, error) {
	var (
		products []model.Product
		changed  bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().FindForUpdate(ctx, id)
		if err != nil {
			return lookupErr(err, "Order")
		}
		from := order.Status
		if changed, err = check(order); err != nil || !changed {
			return err
		}
		if order.Status == model.OrderCancelled && from.HoldsStock() {
			if products, err = s.restoreStock(ctx, tx, order.Items, actor(p)); err != nil {
				return err
			}
		}
		if err := tx.Orders().UpdateStatus(ctx, id, order.Status, actor(p)); err != nil {
			return lookupErr(err, "Order")
		}
		return nil
	})
	return products, changed, err
}

func (s *orderService) Pay(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error) {
	if _, ok := policy.Allowed(p, policy.OrderPay); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.OrderPay)
	}

	_, _, err := s.transition(ctx, p, id, func(order *model.Order) (bool, error) {
		if err := authorizeOwned(p, policy.OrderPay, order.UserID, "Order"); err != nil {
			return false, err
		}
		switch {
		case order.Status == model.OrderPaid:
			return false, apperror.Conflict("order is already paid")
		case !order.Status.CanTransitionTo(model.OrderPaid):
			return false, apperror.Conflict("cannot pay an order that is %s", order.Status)
		}
		order.Status = model.OrderPaid
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Order")
	}
	s.publish(ws.EventOrderStatusChanged, "paid", order)
	return order, nil
}

func (s *orderService) UpdateStatus(ctx context.Context, p policy.Principal, id uuid.UUID, req *UpdateOrderStatusRequest) (*model.Order, error) {
	if err := policy.Authorize(p, policy.OrderUpdateStatus, uuid.Nil); err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperror.Validation("invalid order status '%s'", req.Status)
	}

	products, changed, err := s.transition(ctx, p, id, func(order *model.Order) (bool, error) {
		if order.Status == req.Status {
			return false, nil
		}
		if !order.Status.CanTransitionTo(req.Status) {
			return false, apperror.Conflict("cannot change order status from %s to %s", order.Status, req.Status)
		}
		order.Status = req.Status
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx, products)

	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Order")
	}
	if changed {
		s.notifyOwner(ctx, order)
		s.publish(ws.EventOrderStatusChanged, string(order.Status), order)
	}
	return order, nil
}

// notifyOwner enqueues the status email. The status change has already
// committed, so failures are logged and dropped.
func (s *orderService) notifyOwner(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	owner, err := s.store.Users().FindByID(ctx, order.UserID)
	if err != nil {
		log.Printf("order %s: could not load owner for notification: %v", order.ID, err)
		return
	}
	n := notify.OrderStatusChanged(owner.Email, order.ID, order.Status)
	if err := s.publisher.Publish(ctx, n); err != nil {
		log.Printf("order %s: failed to enqueue status notification: %v", order.ID, err)
	}
}

func (s *orderService) Cancel(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error) {
	if _, ok := policy.Allowed(p, policy.OrderCancel); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.OrderCancel)
	}

	products, changed, err := s.transition(ctx, p, id, func(order *model.Order) (bool, error) {
		if err := authorizeOwned(p, policy.OrderCancel, order.UserID, "Order"); err != nil {
			return false, err
		}
		if order.Status == model.OrderCancelled {
			return false, nil
		}
		if !order.Status.CanTransitionTo(model.OrderCancelled) {
			return false, apperror.Conflict("cannot cancel an order that is %s", order.Status)
		}
		order.Status = model.OrderCancelled
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateStock(ctx, products)

	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Order")
	}
	if changed {
		s.publish(ws.EventOrderStatusChanged, "cancelled", order)
	}
	return order, nil
}

func (s *orderService) Get(ctx context.Context, p policy.Principal, id uuid.UUID) (*model.Order, error) {
	if _, ok := policy.Allowed(p, policy.OrderView); !ok {
		return nil, apperror.Forbidden("role '%s' is not allowed to %s", p.Role, policy.OrderView)
	}
	order, err := s.store.Orders().FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Order")
	}
	if err := authorizeOwned(p, policy.OrderView, order.UserID, "Order"); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, p policy.Principal) ([]model.Order, error) {
	if err := policy.Authorize(p, policy.OrderView, p.UserID); err != nil {
		return nil, err
	}
	orders, err := s.store.Orders().FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, apperror.Database("failed to list orders", err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context, p policy.Principal) ([]model.Order, error) {
	if scope, ok := policy.Allowed(p, policy.OrderView); !ok || scope != policy.ScopeAny {
		return nil, apperror.Forbidden("only administrators can list every order")
	}
	orders, err := s.store.Orders().FindAll(ctx)
	if err != nil {
		return nil, apperror.Database("failed to list orders", err)
	}
	return orders, nil
}

func (s *orderService) publish(eventType, action string, order *model.Order) {
	s.events.Publish(ws.Event{
		Type:   eventType,
		Action: action,
		Payload: map[string]interface{}{
			"id":           order.ID,
			"user_id":      order.UserID,
			"status":       order.Status,
			"total_amount": order.TotalAmount,
			"items":        len(order.Items),
		},
		Message: fmt.Sprintf("order %s is %s", order.ID, order.Status),
	})
}
