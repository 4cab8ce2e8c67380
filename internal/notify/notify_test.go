package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go-ecom-api/internal/model"
	"go-ecom-api/pkg/config"
	"go-ecom-api/pkg/rabbitmq"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type recordingChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func TestOrderStatusChanged(t *testing.T) {
	orderID := uuid.MustParse("8f14e45f-ceea-467f-a0e6-3b3b3b3b3b3b")
	n := OrderStatusChanged("buyer@example.com", orderID, model.OrderShipped)

	assert.Equal(t, "buyer@example.com", n.To)
	assert.Equal(t, "Order Status Update", n.Subject)
	assert.Equal(t, "Your order #8f14e45f-ceea-467f-a0e6-3b3b3b3b3b3b status has been updated to shipped.", n.Body)
	assert.NotEqual(t, uuid.Nil, n.ID)
}

func TestPublisherWritesPersistentJSON(t *testing.T) {
	ch := &recordingChannel{}
	n := OrderStatusChanged("buyer@example.com", uuid.New(), model.OrderPaid)

	require.NoError(t, NewPublisher(ch).Publish(context.Background(), n))

	assert.Equal(t, rabbitmq.ExchangeName, ch.exchange)
	assert.Equal(t, rabbitmq.RoutingKey, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, n.ID.String(), ch.msg.MessageId)

	var got Notification
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, n.Body, got.Body)
}

func TestPublisherReturnsBrokerError(t *testing.T) {
	ch := &recordingChannel{err: amqp.ErrClosed}
	err := NewPublisher(ch).Publish(context.Background(), Notification{ID: uuid.New()})
	assert.ErrorIs(t, err, amqp.ErrClosed)
}

type ackRecorder struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error { return nil }

type flakySender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []Notification
}

func (s *flakySender) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("421 service not available")
	}
	s.sent = append(s.sent, n)
	return nil
}

func delivery(t *testing.T, ack amqp.Acknowledger, n Notification) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(n)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func testWorker(sender Sender, retries uint64) *Worker {
	w := NewWorker(nil, sender)
	w.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
	}
	return w
}

func TestWorkerRetriesThenAcks(t *testing.T) {
	sender := &flakySender{failures: 2}
	ack := &ackRecorder{}
	n := OrderStatusChanged("buyer@example.com", uuid.New(), model.OrderShipped)

	testWorker(sender, 3).handle(context.Background(), delivery(t, ack, n))

	assert.Equal(t, 3, sender.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, n.ID, sender.sent[0].ID)
	assert.Equal(t, 1, ack.acked)
	assert.Zero(t, ack.nacked)
}

func TestWorkerDeadLettersAfterRetries(t *testing.T) {
	sender := &flakySender{failures: 100}
	ack := &ackRecorder{}

	testWorker(sender, 2).handle(context.Background(), delivery(t, ack, Notification{ID: uuid.New(), To: "x@example.com"}))

	assert.Equal(t, 3, sender.calls)
	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

func TestWorkerDeadLettersMalformedMessage(t *testing.T) {
	sender := &flakySender{}
	ack := &ackRecorder{}

	testWorker(sender, 2).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

	assert.Zero(t, sender.calls)
	assert.Equal(t, 1, ack.nacked)
	assert.False(t, ack.requeue)
}

type fakeConsumer struct {
	msgs chan amqp.Delivery
}

func (c *fakeConsumer) Qos(int, int, bool) error { return nil }

func (c *fakeConsumer) Consume(queue, _ string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	if queue != rabbitmq.QueueName || autoAck {
		return nil, errors.New("unexpected consume arguments")
	}
	return c.msgs, nil
}

func TestWorkerRunProcessesUntilQueueCloses(t *testing.T) {
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery, 2)}
	sender := &flakySender{}
	ack := &ackRecorder{}

	w := NewWorker(consumer, sender)
	consumer.msgs <- delivery(t, ack, Notification{ID: uuid.New(), To: "a@example.com"})
	consumer.msgs <- delivery(t, ack, Notification{ID: uuid.New(), To: "b@example.com"})
	close(consumer.msgs)

	err := w.Run(context.Background())

	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.Len(t, sender.sent, 2)
	assert.Equal(t, 2, ack.acked)
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	consumer := &fakeConsumer{msgs: make(chan amqp.Delivery)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewWorker(consumer, &flakySender{}).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerRequeuesWhenShutdownInterruptsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sender := &cancellingSender{cancel: cancel}
	ack := &ackRecorder{}

	w := NewWorker(nil, sender)
	w.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(20 * time.Millisecond) }
	w.handle(ctx, delivery(t, ack, Notification{ID: uuid.New(), To: "x@example.com"}))

	assert.Equal(t, 1, sender.calls)
	assert.Zero(t, ack.acked)
	assert.Equal(t, 1, ack.nacked)
	assert.True(t, ack.requeue)
}

// cancellingSender fails and cancels the worker's context, as a SIGTERM
// arriving mid-send would.
type cancellingSender struct {
	cancel context.CancelFunc
	calls  int
}

func (s *cancellingSender) Send(context.Context, Notification) error {
	s.calls++
	s.cancel()
	return errors.New("421 service not available")
}

func testSMTPSender(cfg config.SMTPConfig) (*SMTPSender, *[]*mail.Msg) {
	s := NewSMTPSender(cfg)
	var sent []*mail.Msg
	s.deliver = func(_ context.Context, msg *mail.Msg) error {
		sent = append(sent, msg)
		return nil
	}
	return s, &sent
}

func TestSMTPSenderBuildsMessage(t *testing.T) {
	cfg := config.SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "mailer", Password: "pw", From: "shop@example.com"}
	s, sent := testSMTPSender(cfg)

	n := OrderStatusChanged("buyer@example.com", uuid.New(), model.OrderDelivered)
	require.NoError(t, s.Send(context.Background(), n))
	require.Len(t, *sent, 1)
	msg := (*sent)[0]

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"buyer@example.com"}, rcpts)
	from, err := msg.GetSender(false)
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", from)
	assert.Equal(t, []string{"Order Status Update"}, msg.GetGenHeader(mail.HeaderSubject))
	assert.Equal(t, []string{"<" + n.ID.String() + "@smtp.example.com>"}, msg.GetGenHeader(mail.HeaderMessageID))

	parts := msg.GetParts()
	require.Len(t, parts, 1)
	body, err := parts[0].GetContent()
	require.NoError(t, err)
	assert.Equal(t, n.Body, string(body))
}

func TestSMTPSenderPermanentFailures(t *testing.T) {
	s, sent := testSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 25, From: "shop@example.com"})

	for _, to := range []string{"", "not an address"} {
		err := s.Send(context.Background(), Notification{ID: uuid.New(), To: to})
		var permanent *backoff.PermanentError
		assert.ErrorAs(t, err, &permanent, to)
	}
	assert.Empty(t, *sent)
}

func TestSMTPSenderCancelledContextIsRetryable(t *testing.T) {
	s, sent := testSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 25, From: "shop@example.com"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, Notification{ID: uuid.New(), To: "buyer@example.com"})

	assert.ErrorIs(t, err, context.Canceled)
	var permanent *backoff.PermanentError
	assert.False(t, errors.As(err, &permanent))
	assert.Empty(t, *sent)
}
