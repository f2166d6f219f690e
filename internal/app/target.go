package app

import (
	"context"
	"time"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/lifecycle"
)

// Record is a type-erased view of a lifecycle-managed record for operator
// tooling.
type Record struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	State         string     `json:"state"`
	Version       int        `json:"version"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`
	DeletedBy     string     `json:"deletedBy,omitempty"`
	EligibleUntil *time.Time `json:"restorationEligibleUntil,omitempty"`

	// Entity is the underlying record
	Entity any `json:"entity"`
}

type named interface {
	GetName() string
}

// RecordOf converts a lifecycle-managed record to its operator view.
func RecordOf[T entity.Deletable](e T) Record {
	l := e.Lifecycle()
	r := Record{
		ID:            e.GetID().String(),
		State:         string(l.State()),
		Version:       e.GetVersion(),
		DeletedAt:     l.DeletedAt,
		EligibleUntil: l.RestorationEligibleUntil,
		Entity:        e,
	}
	if l.DeletedBy != nil {
		r.DeletedBy = *l.DeletedBy
	}
	if n, ok := any(e).(named); ok {
		r.Name = n.GetName()
	}
	return r
}

// Target exposes the lifecycle operations of one record type without its
// type parameter.
type Target struct {
	EntityType string

	List            func(ctx context.Context, filter lifecycle.ListFilter) ([]Record, error)
	Get             func(ctx context.Context, entityID id.ID) (Record, error)
	SoftDelete      func(ctx context.Context, entityID id.ID, actorID string) (Record, error)
	Restore         func(ctx context.Context, entityID id.ID, actorID string) (Record, error)
	PermanentDelete func(ctx context.Context, entityID id.ID, actorID string) error
	History         func(ctx context.Context, entityID id.ID) ([]audit.Entry, error)
	PurgeExpired    func(ctx context.Context) (int, error)
}

func erase[T entity.Deletable](m *lifecycle.Manager[T]) Target {
	one := func(e T, err error) (Record, error) {
		if err != nil {
			return Record{}, err
		}
		return RecordOf(e), nil
	}

	return Target{
		EntityType: m.EntityType(),
		List: func(ctx context.Context, filter lifecycle.ListFilter) ([]Record, error) {
			items, err := m.List(ctx, filter)
			if err != nil {
				return nil, err
			}
			out := make([]Record, 0, len(items))
			for _, e := range items {
				out = append(out, RecordOf(e))
			}
			return out, nil
		},
		Get: func(ctx context.Context, entityID id.ID) (Record, error) {
			return one(m.Get(ctx, entityID))
		},
		SoftDelete: func(ctx context.Context, entityID id.ID, actorID string) (Record, error) {
			return one(m.SoftDelete(ctx, entityID, actorID))
		},
		Restore: func(ctx context.Context, entityID id.ID, actorID string) (Record, error) {
			return one(m.Restore(ctx, entityID, actorID))
		},
		PermanentDelete: m.PermanentDelete,
		History:         m.History,
		PurgeExpired:    m.PurgeExpired,
	}
}
