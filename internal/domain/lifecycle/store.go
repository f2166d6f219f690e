// Package lifecycle implements the soft-delete / restore / purge state machine
// shared by all deletable records.
package lifecycle

import (
	"context"
	"time"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
)

// ListFilter selects records for List.
type ListFilter struct {
	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// OnlyDeleted returns soft-deleted records only (trash view). Implies IncludeDeleted.
	OnlyDeleted bool

	// ExpiredBefore keeps soft-deleted records whose restoration deadline is before this instant
	ExpiredBefore *time.Time

	// Search matches the record name (case-insensitive substring)
	Search string

	Limit  int
	Offset int
}

// RecordStore is the persistence collaborator of Manager.
//
// Errors: NotFound and ConcurrentModification are returned as apperror values;
// anything else is treated as a persistence failure.
type RecordStore[T entity.Deletable] interface {
	// Insert stores a new record.
	Insert(ctx context.Context, e T) error

	// SelectOne returns the current persisted state of a record.
	SelectOne(ctx context.Context, entityID id.ID) (T, error)

	// Select returns records matching filter in storage order.
	Select(ctx context.Context, filter ListFilter) ([]T, error)

	// UpdateLifecycle writes the soft-delete fields if the stored record still
	// has expectedVersion and expectedDeleted, bumps the version and returns
	// the updated record.
	UpdateLifecycle(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool, fields entity.LifecycleFields) (T, error)

	// Delete physically removes a record if it still has expectedVersion and
	// expectedDeleted. A mismatch is a ConcurrentModification.
	Delete(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool) error
}
