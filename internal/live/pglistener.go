package live

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Channel is the NOTIFY channel written by the cards trigger.
const Channel = "card_changes"

type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
}

type acquirer interface {
	acquire(ctx context.Context) (listenConn, error)
}

type poolAcquirer struct{ pool *pgxpool.Pool }

type pooledConn struct{ c *pgxpool.Conn }

func (p poolAcquirer) acquire(ctx context.Context) (listenConn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pooledConn{c: c}, nil
}

func (p pooledConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.c.Exec(ctx, sql, args...)
}

func (p pooledConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return p.c.Conn().WaitForNotification(ctx)
}

func (p pooledConn) Release() { p.c.Release() }

// PGListener forwards card_changes notifications into a Hub so that writes
// made by other server instances reach local subscribers.
type PGListener struct {
	src   acquirer
	hub   *Hub
	log   *zap.Logger
	retry time.Duration
}

// NewPGListener holds one pool connection while Run is active.
func NewPGListener(pool *pgxpool.Pool, hub *Hub, log *zap.Logger) *PGListener {
	return &PGListener{src: poolAcquirer{pool: pool}, hub: hub, log: log, retry: time.Second}
}

// Run listens until ctx is done, re-acquiring a connection after failures.
func (l *PGListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("card listener interrupted", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := l.src.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return err
	}
	l.log.Info("listening for card changes", zap.String("channel", Channel))
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		owner, err := uuid.FromString(n.Payload)
		if err != nil {
			l.log.Warn("bad card notification payload", zap.String("payload", n.Payload))
			continue
		}
		l.hub.Publish(owner)
	}
}
