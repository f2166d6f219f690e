package memory

import (
	"context"
	"sync"

	"portfolio/internal/core/tx"
)

type participant interface {
	snapshot() any
	restore(v any)
	attach(m *TxManager)
}

type txKey struct{}

// TxManager gives the in-memory stores all-or-nothing semantics: it
// snapshots every registered store before fn and rolls them back if fn fails.
//
// Transactions are serialized, and writes made outside a transaction wait
// for the running one to finish, so a rollback never discards them.
type TxManager struct {
	mu     sync.Mutex
	stores []participant
}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager accepts *RecordStore and *AuditLog values.
func NewTxManager(stores ...participant) *TxManager {
	m := &TxManager{stores: stores}
	for _, s := range stores {
		s.attach(m)
	}
	return m
}

// RunInTransaction runs fn atomically. A nested call joins the outer
// transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := make([]any, len(m.stores))
	for i, s := range m.stores {
		snaps[i] = s.snapshot()
	}

	defer func() {
		if p := recover(); p != nil {
			m.rollback(snaps)
			panic(p)
		}
		if err != nil {
			m.rollback(snaps)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, m))
}

func (m *TxManager) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*TxManager)
	return owner == m
}

// exclusive blocks until no transaction is running and returns the release
// func. Inside a transaction of m it is a no-op. Safe on a nil manager.
func (m *TxManager) exclusive(ctx context.Context) func() {
	if m == nil || m.inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *TxManager) rollback(snaps []any) {
	for i, s := range m.stores {
		s.restore(snaps[i])
	}
}
