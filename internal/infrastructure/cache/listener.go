package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"supplyplan/pkg/logger"
)

// ReferenceChannel is the NOTIFY channel fired by the reference-table triggers.
const ReferenceChannel = "reference_changed"

// Listener invalidates the reference cache when PostgreSQL reports a change
// on ReferenceChannel. Payload is the table name.
type Listener struct {
	pool  *pgxpool.Pool
	cache *ReferenceCache

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewListener creates a listener. Call Start to begin listening.
func NewListener(pool *pgxpool.Pool, cache *ReferenceCache) *Listener {
	return &Listener{pool: pool, cache: cache}
}

// Start spawns the LISTEN loop. It is a no-op when already started.
func (l *Listener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "reference cache listener started")
}

// Stop cancels the loop and waits for it to exit.
func (l *Listener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "reference cache listener stopped")
}

func (l *Listener) listenLoop() {
	defer l.wg.Done()

	for l.ctx.Err() == nil {
		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			time.Sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+ReferenceChannel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			time.Sleep(time.Second)
			continue
		}

		// Changes made while we were disconnected are unknown.
		l.invalidate("reconnect")
		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *Listener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		notification, err := conn.Conn().WaitForNotification(l.ctx)
		if err != nil {
			if l.ctx.Err() == nil {
				logger.Warn(l.ctx, "LISTEN connection lost", "error", err)
			}
			return
		}
		l.invalidate(notification.Payload)
	}
}

func (l *Listener) invalidate(reason string) {
	if err := l.cache.Invalidate(l.ctx); err != nil {
		logger.Error(l.ctx, "failed to invalidate reference cache", "reason", reason, "error", err)
		return
	}
	logger.Debug(l.ctx, "reference cache invalidated", "reason", reason)
}
