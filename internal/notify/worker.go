package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"go-ecom-api/pkg/rabbitmq"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrQueueClosed is returned by Run when the broker closes the delivery
// channel.
var ErrQueueClosed = errors.New("notification queue closed")

type amqpConsumer interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Worker consumes the notification queue and hands each message to a
// Sender. Failed sends are retried with exponential backoff; a message that
// still fails is rejected without requeue and lands in the dead-letter queue.
// A message interrupted by shutdown is requeued.
type Worker struct {
	ch         amqpConsumer
	sender     Sender
	newBackOff func() backoff.BackOff
}

func NewWorker(ch amqpConsumer, sender Sender) *Worker {
	return &Worker{ch: ch, sender: sender, newBackOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return b
}

// Run blocks until ctx is cancelled or the delivery channel closes.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.ch.Qos(1, 0, false); err != nil {
		return err
	}
	msgs, err := w.ch.Consume(
		rabbitmq.QueueName, // queue
		"ecom-mailer",      // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return ErrQueueClosed
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var n Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		log.Printf("notify: dropping malformed message %s: %v", d.MessageId, err)
		if err := d.Nack(false, false); err != nil {
			log.Printf("notify: nack failed: %v", err)
		}
		return
	}

	err := backoff.RetryNotify(
		func() error { return w.sender.Send(ctx, n) },
		backoff.WithContext(w.newBackOff(), ctx),
		func(err error, wait time.Duration) {
			log.Printf("notify: send to %s failed, retrying in %s: %v", n.To, wait, err)
		},
	)
	if err != nil && ctx.Err() != nil {
		log.Printf("notify: shutting down, requeueing %s", n.ID)
		if err := d.Nack(false, true); err != nil {
			log.Printf("notify: nack failed: %v", err)
		}
		return
	}
	if err != nil {
		log.Printf("notify: giving up on %s for %s: %v", n.ID, n.To, err)
		if err := d.Nack(false, false); err != nil {
			log.Printf("notify: nack failed: %v", err)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Printf("notify: ack failed: %v", err)
	}
}
