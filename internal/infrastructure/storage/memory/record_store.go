// Package memory provides in-process implementations of the record store,
// the audit log and the transaction manager. Used by tests, the CLI's
// --memory mode and local development.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/lifecycle"
)

// RecordStore is a thread-safe in-memory lifecycle.RecordStore.
// Records are returned in insertion order.
type RecordStore[T entity.Deletable] struct {
	mu      sync.RWMutex
	records map[id.ID]T
	order   []id.ID

	entityType string
	clone      func(T) T
	searchKey  func(T) string
	now        func() time.Time

	txm        *TxManager
	referenced func(ctx context.Context, entityID id.ID) (bool, error)
}

// Option configures a RecordStore.
type Option[T entity.Deletable] func(*RecordStore[T])

// WithSearchKey enables ListFilter.Search by case-insensitive substring match.
func WithSearchKey[T entity.Deletable](fn func(T) string) Option[T] {
	return func(s *RecordStore[T]) { s.searchKey = fn }
}

// WithClock overrides the clock used for updated_at.
func WithClock[T entity.Deletable](now func() time.Time) Option[T] {
	return func(s *RecordStore[T]) { s.now = now }
}

// WithReferenceCheck makes Delete fail with InvalidState while fn reports the
// record as referenced, like a foreign key would.
func WithReferenceCheck[T entity.Deletable](fn func(ctx context.Context, entityID id.ID) (bool, error)) Option[T] {
	return func(s *RecordStore[T]) { s.referenced = fn }
}

// NewRecordStore creates an empty store. clone must return a deep copy;
// the store never hands out its own instances.
func NewRecordStore[T entity.Deletable](entityType string, clone func(T) T, opts ...Option[T]) *RecordStore[T] {
	s := &RecordStore[T]{
		records:    make(map[id.ID]T),
		entityType: entityType,
		clone:      clone,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ lifecycle.RecordStore[*entity.BaseEntity] = (*RecordStore[*entity.BaseEntity])(nil)

func (s *RecordStore[T]) Insert(ctx context.Context, e T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.txm.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[e.GetID()]; exists {
		return apperror.NewValidation(s.entityType+" already exists").WithDetail("id", e.GetID().String())
	}
	s.records[e.GetID()] = s.clone(e)
	s.order = append(s.order, e.GetID())
	return nil
}

func (s *RecordStore[T]) SelectOne(ctx context.Context, entityID id.ID) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[entityID]
	if !ok {
		return zero, apperror.NewNotFound(s.entityType, entityID.String())
	}
	return s.clone(e), nil
}

func (s *RecordStore[T]) Select(ctx context.Context, filter lifecycle.ListFilter) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]T, 0, len(s.order))
	skipped := 0
	for _, key := range s.order {
		e := s.records[key]
		if !matches(e.Lifecycle(), filter) {
			continue
		}
		if search != "" && s.searchKey != nil && !strings.Contains(strings.ToLower(s.searchKey(e)), search) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		out = append(out, s.clone(e))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func matches(l *entity.LifecycleFields, filter lifecycle.ListFilter) bool {
	switch {
	case filter.OnlyDeleted && !l.IsDeleted:
		return false
	case !filter.OnlyDeleted && !filter.IncludeDeleted && l.IsDeleted:
		return false
	}
	if filter.ExpiredBefore != nil {
		if l.RestorationEligibleUntil == nil || !l.RestorationEligibleUntil.Before(*filter.ExpiredBefore) {
			return false
		}
	}
	return true
}

// UpdateLifecycle applies fields only if the stored version and deletion flag
// still match what the caller read.
func (s *RecordStore[T]) UpdateLifecycle(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool, fields entity.LifecycleFields) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	defer s.txm.exclusive(ctx)()
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[entityID]
	if !ok {
		return zero, apperror.NewNotFound(s.entityType, entityID.String())
	}
	if current.GetVersion() != expectedVersion || current.Lifecycle().IsDeleted != expectedDeleted {
		return zero, apperror.NewConcurrentModification(s.entityType, entityID.String())
	}

	next := s.clone(current)
	*next.Lifecycle() = fields.Clone()
	next.SetVersion(expectedVersion + 1)
	next.SetUpdatedAt(s.now())
	s.records[entityID] = next
	return s.clone(next), nil
}

// Delete removes a record only if it still matches what the caller read.
func (s *RecordStore[T]) Delete(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer s.txm.exclusive(ctx)()

	if s.referenced != nil {
		used, err := s.referenced(ctx, entityID)
		if err != nil {
			return err
		}
		if used {
			return apperror.NewInvalidState(s.entityType+" is still referenced by other records").
				WithDetail("id", entityID.String())
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[entityID]
	if !ok {
		return apperror.NewNotFound(s.entityType, entityID.String())
	}
	if current.GetVersion() != expectedVersion || current.Lifecycle().IsDeleted != expectedDeleted {
		return apperror.NewConcurrentModification(s.entityType, entityID.String())
	}
	delete(s.records, entityID)
	for i, key := range s.order {
		if key == entityID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Put overwrites a record without any checks. Tests use it to move
// restoration deadlines into the past.
func (s *RecordStore[T]) Put(e T) {
	defer s.txm.exclusive(context.Background())()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[e.GetID()]; !exists {
		s.order = append(s.order, e.GetID())
	}
	s.records[e.GetID()] = s.clone(e)
}

// Len returns the number of stored records, deleted or not.
func (s *RecordStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type recordSnapshot[T entity.Deletable] struct {
	records map[id.ID]T
	order   []id.ID
}

func (s *RecordStore[T]) snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := recordSnapshot[T]{
		records: make(map[id.ID]T, len(s.records)),
		order:   append([]id.ID(nil), s.order...),
	}
	for k, v := range s.records {
		snap.records[k] = s.clone(v)
	}
	return snap
}

func (s *RecordStore[T]) attach(m *TxManager) {
	s.txm = m
}

func (s *RecordStore[T]) restore(v any) {
	snap := v.(recordSnapshot[T])
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = snap.records
	s.order = snap.order
}
