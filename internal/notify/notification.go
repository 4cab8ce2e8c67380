// Package notify carries user-facing email notifications from the services
// to the mail server through a durable queue. Delivery is at least once.
package notify

import (
	"context"
	"fmt"
	"time"

	"go-ecom-api/internal/model"

	"github.com/google/uuid"
)

const OrderStatusSubject = "Order Status Update"

// Notification is one email to one recipient.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	OrderID   uuid.UUID `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher enqueues a notification. A nil error means the broker accepted
// it, not that it was delivered.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Sender delivers a notification to the recipient.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// OrderStatusChanged builds the message sent to a customer after an admin
// moves their order to status.
func OrderStatusChanged(to string, orderID uuid.UUID, status model.OrderStatus) Notification {
	return Notification{
		ID:        uuid.New(),
		To:        to,
		Subject:   OrderStatusSubject,
		Body:      fmt.Sprintf("Your order #%s status has been updated to %s.", orderID, status),
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	}
}
