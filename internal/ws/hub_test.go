package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
	failing  bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHubBroadcastsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub()
	go h.Run(ctx)

	good := &fakeConn{}
	bad := &fakeConn{failing: true}
	h.Register(good)
	h.Register(bad)

	h.Publish(Event{Type: EventOrderCreated, Payload: map[string]string{"id": "42"}})

	require.Eventually(t, func() bool { return good.received() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, bad.isClosed, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.Clients())

	good.mu.Lock()
	var ev Event
	require.NoError(t, json.Unmarshal(good.messages[0], &ev))
	good.mu.Unlock()
	assert.Equal(t, EventOrderCreated, ev.Type)
	assert.False(t, ev.At.IsZero())
}

func TestHubPublishNeverBlocks(t *testing.T) {
	h := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(h.broadcast)+10; i++ {
			h.Publish(Event{Type: EventProductChanged})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestHubClosesClientsOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	conn := &fakeConn{}
	h.Register(conn)
	h.Unregister(&fakeConn{})
	cancel()
	<-stopped

	assert.True(t, conn.isClosed())
	assert.Zero(t, h.Clients())
}

func TestHubRegistrationAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	conn := &fakeConn{}
	h.Register(conn)
	cancel()
	<-stopped

	late := &fakeConn{}
	returned := make(chan struct{})
	go func() {
		h.Unregister(conn)
		h.Register(late)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after shutdown")
	}
	assert.True(t, late.isClosed())
	assert.Zero(t, h.Clients())
}
