package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio/internal/core/id"
	"portfolio/pkg/logger"
)

// ChangeChannel is the PostgreSQL NOTIFY channel fed by the lifecycle trigger.
const ChangeChannel = "lifecycle_changed"

// Change is the NOTIFY payload emitted when a lifecycle-managed row changes
// in another process.
type Change struct {
	EntityType string `json:"entity_type"`
	EntityID   id.ID  `json:"id"`
	Op         string `json:"op"` // UPDATE or DELETE
}

// Deleted reports whether the row was physically removed.
func (c Change) Deleted() bool {
	return strings.EqualFold(c.Op, "DELETE")
}

// ChangeHandler reacts to one change. Handlers are keyed by entity type.
type ChangeHandler func(ctx context.Context, change Change)

// ChangeListener keeps session caches coherent across server instances by
// listening for lifecycle_changed notifications.
type ChangeListener struct {
	pool *pgxpool.Pool

	handlersMu sync.RWMutex
	handlers   map[string]ChangeHandler

	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

func NewChangeListener(pool *pgxpool.Pool) *ChangeListener {
	return &ChangeListener{
		pool:     pool,
		handlers: make(map[string]ChangeHandler),
	}
}

// Handle registers the handler of an entity type.
func (l *ChangeListener) Handle(entityType string, h ChangeHandler) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	l.handlers[entityType] = h
}

// Start begins listening. Calling it twice is a no-op.
func (l *ChangeListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "change listener started", "channel", ChangeChannel)
}

// Stop cancels the listener and waits for it to exit.
func (l *ChangeListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "change listener stopped")
}

func (l *ChangeListener) listenLoop() {
	defer l.wg.Done()

	for {
		if l.ctx.Err() != nil {
			return
		}

		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err = conn.Exec(l.ctx, "LISTEN "+ChangeChannel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *ChangeListener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		if l.ctx.Err() != nil {
			return
		}

		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		n, err := conn.Conn().WaitForNotification(ctx)
		cancel()
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if conn.Conn().IsClosed() {
				logger.Warn(l.ctx, "LISTEN connection lost, reconnecting")
				return
			}
			continue
		}

		l.Dispatch(l.ctx, n.Payload)
	}
}

// Dispatch decodes a payload and calls the matching handler. A panicking
// handler is recovered and logged.
func (l *ChangeListener) Dispatch(ctx context.Context, payload string) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		logger.Warn(ctx, "malformed change notification", "payload", payload, "error", err)
		return
	}

	l.handlersMu.RLock()
	h, ok := l.handlers[change.EntityType]
	l.handlersMu.RUnlock()
	if !ok {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "change handler panic recovered", "entity_type", change.EntityType, "panic", r)
		}
	}()
	h(ctx, change)
}

func (l *ChangeListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
