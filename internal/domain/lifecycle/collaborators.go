package lifecycle

import (
	"context"
	"time"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
)

// Observer receives lifecycle changes after they are persisted.
// The client-side cache implements it to apply optimistic updates.
type Observer[T entity.Deletable] interface {
	Applied(e T)
	Removed(entityID id.ID)
}

// Notifier is the user-visible notification (toast) side channel.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}

// Recorder collects operation metrics.
type Recorder interface {
	ObserveOperation(entityType, operation, outcome string, elapsed time.Duration)
	AuditFailure(entityType string, action audit.Action)
}

type nopObserver[T entity.Deletable] struct{}

func (nopObserver[T]) Applied(T) {}
func (nopObserver[T]) Removed(id.ID) {}

type nopNotifier struct{}

func (nopNotifier) Success(context.Context, string) {}
func (nopNotifier) Failure(context.Context, string) {}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, string, time.Duration) {}
func (nopRecorder) AuditFailure(string, audit.Action) {}
