package cache

import (
	"context"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/pkg/logger"
)

// Loader fetches the current state of one record.
type Loader[T entity.Deletable] func(ctx context.Context, entityID id.ID) (T, error)

// Refresher returns a ChangeHandler that re-reads a changed record and
// applies it to every session holding it. Rows that no longer exist are removed.
func Refresher[T entity.Deletable](sessions *Sessions[T], load Loader[T]) ChangeHandler {
	return func(ctx context.Context, change Change) {
		if change.Deleted() {
			sessions.Removed(change.EntityID)
			return
		}

		e, err := load(ctx, change.EntityID)
		if err != nil {
			if apperror.IsNotFound(err) {
				sessions.Removed(change.EntityID)
				return
			}
			logger.Warn(ctx, "cache refresh failed", "entity_type", change.EntityType, "entity_id", change.EntityID.String(), "error", err)
			return
		}
		sessions.Applied(e)
	}
}
