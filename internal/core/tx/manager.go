// Package tx defines the transaction contract used by the lifecycle manager.
// The PostgreSQL implementation lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// Nested calls reuse the transaction already carried by ctx.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Direct is a Manager without a backing transaction. fn runs as-is, so
// writes already made are not undone when fn fails. Used with stores that
// have no transaction support (in-memory stores, tests).
type Direct struct{}

// RunInTransaction calls fn.
func (Direct) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ Manager = Direct{}
