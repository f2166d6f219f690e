package memory

import (
	"context"
	"sync"
	"time"

	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
)

// AuditLog is an append-only in-memory audit.Log.
type AuditLog struct {
	mu      sync.RWMutex
	entries []audit.Entry
	now     func() time.Time

	txm *TxManager
}

func NewAuditLog() *AuditLog {
	return &AuditLog{now: func() time.Time { return time.Now().UTC() }}
}

var _ audit.Log = (*AuditLog)(nil)

func (l *AuditLog) Append(ctx context.Context, in audit.EntryInput) (audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return audit.Entry{}, err
	}
	e, err := audit.NewEntry(in, l.now())
	if err != nil {
		return audit.Entry{}, err
	}

	defer l.txm.exclusive(ctx)()
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e, nil
}

// QueryByEntity returns entries newest first. Entries appended later sort
// first even when their timestamps are equal.
func (l *AuditLog) QueryByEntity(ctx context.Context, entityType string, entityID id.ID) ([]audit.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]audit.Entry, 0)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len returns the total number of entries.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

func (l *AuditLog) snapshot() any {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]audit.Entry(nil), l.entries...)
}

func (l *AuditLog) attach(m *TxManager) {
	l.txm = m
}

func (l *AuditLog) restore(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = v.([]audit.Entry)
}
