package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go-ecom-api/pkg/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type publisher struct {
	ch amqpPublisher
}

// NewPublisher returns a Publisher writing persistent messages to the
// notification exchange.
func NewPublisher(ch amqpPublisher) Publisher {
	return &publisher{ch: ch}
}

func (p *publisher) Publish(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("could not marshal notification: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		rabbitmq.ExchangeName, // exchange
		rabbitmq.RoutingKey,   // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID.String(),
			Timestamp:    n.CreatedAt,
			Body:         body,
		},
	)
}
