package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHub_PublishCoalesces(t *testing.T) {
	t.Parallel()

	h := NewHub()
	owner := uuid.Must(uuid.NewV4())
	ch, cancel := h.Subscribe(owner)
	defer cancel()

	h.Publish(owner)
	h.Publish(owner)
	h.Publish(uuid.Must(uuid.NewV4()))

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	t.Parallel()

	h := NewHub()
	owner := uuid.Must(uuid.NewV4())
	ch1, cancel1 := h.Subscribe(owner)
	_, cancel2 := h.Subscribe(owner)
	require.Equal(t, 2, h.Subscribers(owner))

	cancel1()
	cancel1()
	_, open := <-ch1
	require.False(t, open)
	require.Equal(t, 1, h.Subscribers(owner))

	cancel2()
	require.Equal(t, 0, h.Subscribers(owner))
	h.Publish(owner)
}

type fakeConn struct {
	mu       sync.Mutex
	execs    []string
	notes    chan *pgconn.Notification
	released bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.execs = append(c.execs, sql)
	return pgconn.NewCommandTag("LISTEN"), nil
}

func (c *fakeConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	select {
	case n, ok := <-c.notes:
		if !ok {
			return nil, errors.New("connection lost")
		}
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Release() {
	c.mu.Lock()
	c.released = true
	c.mu.Unlock()
}

type fakeAcquirer struct {
	mu    sync.Mutex
	conns []*fakeConn
	n     int
}

func (a *fakeAcquirer) acquire(context.Context) (listenConn, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.n >= len(a.conns) {
		return nil, errors.New("pool exhausted")
	}
	c := a.conns[a.n]
	a.n++
	return c, nil
}

func TestPGListener_ForwardsAndReconnects(t *testing.T) {
	t.Parallel()

	owner := uuid.Must(uuid.NewV4())
	first := &fakeConn{notes: make(chan *pgconn.Notification, 2)}
	second := &fakeConn{notes: make(chan *pgconn.Notification, 2)}
	src := &fakeAcquirer{conns: []*fakeConn{first, second}}

	hub := NewHub()
	sig, cancel := hub.Subscribe(owner)
	defer cancel()

	l := &PGListener{src: src, hub: hub, log: zaptest.NewLogger(t), retry: time.Millisecond}
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	first.notes <- &pgconn.Notification{Channel: Channel, Payload: "garbage"}
	first.notes <- &pgconn.Notification{Channel: Channel, Payload: owner.String()}
	select {
	case <-sig:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not forwarded")
	}

	close(first.notes)
	second.notes <- &pgconn.Notification{Channel: Channel, Payload: owner.String()}
	select {
	case <-sig:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not reconnect")
	}

	stop()
	require.NoError(t, <-done)

	first.mu.Lock()
	require.True(t, first.released)
	require.Equal(t, []string{"LISTEN card_changes"}, first.execs)
	first.mu.Unlock()
}
