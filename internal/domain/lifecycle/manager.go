package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/core/tx"
	"portfolio/internal/domain/audit"
	"portfolio/pkg/logger"
)

var tracer = otel.Tracer("portfolio/lifecycle")

// Operation names used for metrics, spans and notifications.
const (
	OpSoftDelete      = "soft_delete"
	OpRestore         = "restore"
	OpPermanentDelete = "permanent_delete"
)

// Config wires a Manager. Store, Audit and EntityType are required.
type Config[T entity.Deletable] struct {
	// EntityType is the audit tag, e.g. "project"
	EntityType string

	// DisplayName is used in user-facing messages, e.g. "Project"
	DisplayName string

	Store RecordStore[T]
	Audit audit.Log

	// TxManager is used in AuditTransactional mode. Defaults to tx.Direct.
	TxManager tx.Manager

	Policy Policy

	// Optional collaborators
	Observer Observer[T]
	Notifier Notifier
	Recorder Recorder

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Manager enforces the soft-delete / restore state machine for one record type.
type Manager[T entity.Deletable] struct {
	entityType  string
	displayName string

	store    RecordStore[T]
	audit    audit.Log
	txm      tx.Manager
	policy   Policy
	guard    *PurgeGuard
	observer Observer[T]
	notifier Notifier
	recorder Recorder
	now      func() time.Time
}

// NewManager validates cfg and builds a Manager.
func NewManager[T entity.Deletable](cfg Config[T]) (*Manager[T], error) {
	if cfg.EntityType == "" {
		return nil, errors.New("lifecycle: entity type is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("lifecycle: record store is required")
	}
	if cfg.Audit == nil {
		return nil, errors.New("lifecycle: audit log is required")
	}
	if cfg.Policy.RestorationWindow == 0 {
		cfg.Policy.RestorationWindow = DefaultRestorationWindow
	}
	if cfg.Policy.AuditMode == "" {
		cfg.Policy.AuditMode = AuditBestEffort
	}
	if err := cfg.Policy.validate(); err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}

	m := &Manager[T]{
		entityType:  cfg.EntityType,
		displayName: cfg.DisplayName,
		store:       cfg.Store,
		audit:       cfg.Audit,
		txm:         cfg.TxManager,
		policy:      cfg.Policy,
		guard:       cfg.Policy.PurgeGuard,
		observer:    cfg.Observer,
		notifier:    cfg.Notifier,
		recorder:    cfg.Recorder,
		now:         cfg.Now,
	}
	if m.displayName == "" {
		m.displayName = cfg.EntityType
	}
	if m.txm == nil {
		m.txm = tx.Direct{}
	}
	if m.guard == nil {
		guard, err := NewPurgeGuard(RequireSoftDeleted)
		if err != nil {
			return nil, err
		}
		m.guard = guard
	}
	if m.observer == nil {
		m.observer = nopObserver[T]{}
	}
	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m, nil
}

// EntityType returns the audit tag of the managed record type.
func (m *Manager[T]) EntityType() string {
	return m.entityType
}

// Policy returns the active policy.
func (m *Manager[T]) Policy() Policy {
	return m.policy
}

// SoftDelete marks a record deleted by actorID and opens the restoration window.
func (m *Manager[T]) SoftDelete(ctx context.Context, entityID id.ID, actorID string) (result T, err error) {
	ctx, span := m.startSpan(ctx, OpSoftDelete, entityID)
	start := time.Now()
	defer func() { m.finish(ctx, span, OpSoftDelete, start, err) }()

	if actorID == "" {
		return result, apperror.NewUnauthorized("authentication required")
	}

	current, err := m.load(ctx, entityID)
	if err != nil {
		return result, err
	}
	if current.Lifecycle().IsDeleted {
		return result, apperror.NewInvalidState(fmt.Sprintf("%s is already soft-deleted", m.entityType)).
			WithDetail("id", entityID.String())
	}

	fields := entity.SoftDeletedFields(actorID, m.now(), m.policy.RestorationWindow)
	updated, err := m.transition(ctx, current, fields, audit.EntryInput{
		Action:   audit.ActionSoftDelete,
		UserID:   actorID,
		Metadata: fields.Snapshot(),
	})
	if err != nil {
		return result, err
	}

	m.observer.Applied(updated)
	logger.Info(ctx, "record soft-deleted",
		"entity_type", m.entityType,
		"entity_id", entityID.String(),
		"restoration_eligible_until", fields.RestorationEligibleUntil,
	)
	return updated, nil
}

// Restore clears the soft-delete fields if the restoration window is still open.
func (m *Manager[T]) Restore(ctx context.Context, entityID id.ID, actorID string) (result T, err error) {
	ctx, span := m.startSpan(ctx, OpRestore, entityID)
	start := time.Now()
	defer func() { m.finish(ctx, span, OpRestore, start, err) }()

	if actorID == "" {
		return result, apperror.NewUnauthorized("authentication required")
	}

	current, err := m.load(ctx, entityID)
	if err != nil {
		return result, err
	}

	previous := current.Lifecycle().Clone()
	if !previous.IsDeleted {
		return result, apperror.NewInvalidState(fmt.Sprintf("%s is not soft-deleted and cannot be restored", m.entityType)).
			WithDetail("id", entityID.String())
	}
	if previous.WindowExpired(m.now()) {
		return result, apperror.NewRestorationWindowExpired(m.displayName, entityID.String()).
			WithDetail("restorationEligibleUntil", previous.RestorationEligibleUntil)
	}

	updated, err := m.transition(ctx, current, entity.LifecycleFields{}, audit.EntryInput{
		Action:   audit.ActionRestore,
		UserID:   actorID,
		Metadata: map[string]any{"previous": previous.Snapshot()},
	})
	if err != nil {
		return result, err
	}

	m.observer.Applied(updated)
	logger.Info(ctx, "record restored",
		"entity_type", m.entityType,
		"entity_id", entityID.String(),
	)
	return updated, nil
}

// PermanentDelete physically removes a record if the purge guard allows it.
// actorID is optional and only recorded in the audit entry.
func (m *Manager[T]) PermanentDelete(ctx context.Context, entityID id.ID, actorID string) (err error) {
	ctx, span := m.startSpan(ctx, OpPermanentDelete, entityID)
	start := time.Now()
	defer func() { m.finish(ctx, span, OpPermanentDelete, start, err) }()

	return m.permanentDelete(ctx, entityID, actorID)
}

func (m *Manager[T]) permanentDelete(ctx context.Context, entityID id.ID, actorID string) error {
	current, err := m.load(ctx, entityID)
	if err != nil {
		return err
	}

	fields := current.Lifecycle().Clone()
	allowed, err := m.guard.Allow(fields, m.now())
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !allowed {
		return apperror.NewInvalidState(fmt.Sprintf("%s cannot be permanently deleted in its current state", m.entityType)).
			WithDetail("id", entityID.String()).
			WithDetail("guard", m.guard.Expression())
	}

	in := audit.EntryInput{
		Action:     audit.ActionPermanentDelete,
		EntityType: m.entityType,
		EntityID:   entityID,
		UserID:     actorID,
		Metadata:   fields.Snapshot(),
	}

	remove := func(ctx context.Context) error {
		if err := m.store.Delete(ctx, entityID, current.GetVersion(), fields.IsDeleted); err != nil {
			return m.storeErr(err)
		}
		return nil
	}

	if m.policy.AuditMode == AuditTransactional {
		err = m.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := remove(ctx); err != nil {
				return err
			}
			return m.appendStrict(ctx, in)
		})
		if err != nil {
			return err
		}
	} else {
		if err := remove(ctx); err != nil {
			return err
		}
		m.appendBestEffort(ctx, in)
	}

	m.observer.Removed(entityID)
	logger.Info(ctx, "record permanently deleted",
		"entity_type", m.entityType,
		"entity_id", entityID.String(),
	)
	return nil
}

// validator is implemented by records that check their own payload.
type validator interface {
	Validate() error
}

// Create inserts a new active record. Creation is not a lifecycle action and
// is not audited.
func (m *Manager[T]) Create(ctx context.Context, e T, actorID string) (T, error) {
	var zero T
	if actorID == "" {
		return zero, apperror.NewUnauthorized("authentication required")
	}
	if v, ok := any(e).(validator); ok {
		if err := v.Validate(); err != nil {
			return zero, err
		}
	}
	if e.Lifecycle().IsDeleted {
		return zero, apperror.NewValidation("new records must be active")
	}

	if err := m.store.Insert(ctx, e); err != nil {
		return zero, m.storeErr(err)
	}
	created, err := m.load(ctx, e.GetID())
	if err != nil {
		return zero, err
	}

	m.observer.Applied(created)
	logger.Info(ctx, "record created",
		"entity_type", m.entityType,
		"entity_id", created.GetID().String(),
	)
	return created, nil
}

// Get returns the current persisted state of a record.
func (m *Manager[T]) Get(ctx context.Context, entityID id.ID) (T, error) {
	return m.load(ctx, entityID)
}

// List re-reads the store on every call. Soft-deleted records are excluded
// unless filter.IncludeDeleted or filter.OnlyDeleted is set.
func (m *Manager[T]) List(ctx context.Context, filter ListFilter) ([]T, error) {
	items, err := m.store.Select(ctx, filter)
	if err != nil {
		return nil, m.storeErr(err)
	}
	return items, nil
}

// History returns the audit trail of a record, newest first.
func (m *Manager[T]) History(ctx context.Context, entityID id.ID) ([]audit.Entry, error) {
	entries, err := m.audit.QueryByEntity(ctx, m.entityType, entityID)
	if err != nil {
		return nil, m.storeErr(err)
	}
	return entries, nil
}

// PurgeExpired permanently deletes every soft-deleted record whose
// restoration window has passed. A failure on one record does not stop the
// sweep; failures are joined into the returned error.
func (m *Manager[T]) PurgeExpired(ctx context.Context) (int, error) {
	now := m.now()
	expired, err := m.store.Select(ctx, ListFilter{OnlyDeleted: true, ExpiredBefore: &now})
	if err != nil {
		return 0, m.storeErr(err)
	}

	purged := 0
	var errs []error
	for _, e := range expired {
		if err := m.PermanentDelete(ctx, e.GetID(), ""); err != nil {
			logger.Warn(ctx, "purge of expired record failed",
				"entity_type", m.entityType,
				"entity_id", e.GetID().String(),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		purged++
	}
	return purged, errors.Join(errs...)
}

// --- internals ---

// transition writes new lifecycle fields and appends the audit entry
// according to the audit mode.
func (m *Manager[T]) transition(ctx context.Context, current T, fields entity.LifecycleFields, in audit.EntryInput) (T, error) {
	var zero, updated T
	in.EntityType = m.entityType
	in.EntityID = current.GetID()

	write := func(ctx context.Context) error {
		u, err := m.store.UpdateLifecycle(ctx,
			current.GetID(),
			current.GetVersion(),
			current.Lifecycle().IsDeleted,
			fields,
		)
		if err != nil {
			return m.storeErr(err)
		}
		updated = u
		return nil
	}

	if m.policy.AuditMode == AuditTransactional {
		err := m.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := write(ctx); err != nil {
				return err
			}
			return m.appendStrict(ctx, in)
		})
		if err != nil {
			return zero, err
		}
		return updated, nil
	}

	if err := write(ctx); err != nil {
		return zero, err
	}
	m.appendBestEffort(ctx, in)
	return updated, nil
}

func (m *Manager[T]) appendStrict(ctx context.Context, in audit.EntryInput) error {
	if _, err := m.audit.Append(ctx, in); err != nil {
		m.recorder.AuditFailure(m.entityType, in.Action)
		if apperror.IsAppError(err) {
			return err
		}
		return apperror.NewPersistence(fmt.Errorf("append audit entry: %w", err))
	}
	return nil
}

// appendBestEffort never fails the caller: the entity write already succeeded.
func (m *Manager[T]) appendBestEffort(ctx context.Context, in audit.EntryInput) {
	if _, err := m.audit.Append(ctx, in); err != nil {
		m.recorder.AuditFailure(m.entityType, in.Action)
		logger.Error(ctx, "audit append failed, entity change kept",
			"entity_type", in.EntityType,
			"entity_id", in.EntityID.String(),
			"action", string(in.Action),
			"error", err,
		)
	}
}

func (m *Manager[T]) load(ctx context.Context, entityID id.ID) (T, error) {
	e, err := m.store.SelectOne(ctx, entityID)
	if err != nil {
		var zero T
		if apperror.IsNotFound(err) {
			return zero, apperror.NewNotFound(m.entityType, entityID.String())
		}
		return zero, m.storeErr(err)
	}
	return e, nil
}

// storeErr keeps structured errors and maps everything else to PersistenceError.
func (m *Manager[T]) storeErr(err error) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewPersistence(err).WithDetail("entity", m.entityType)
}

func (m *Manager[T]) startSpan(ctx context.Context, op string, entityID id.ID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "lifecycle."+op,
		trace.WithAttributes(
			attribute.String("entity.type", m.entityType),
			attribute.String("entity.id", entityID.String()),
		))
}

// finish records metrics, closes the span and sends the toast.
func (m *Manager[T]) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	defer span.End()

	outcome := "success"
	if err != nil {
		outcome = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	m.recorder.ObserveOperation(m.entityType, op, outcome, time.Since(start))

	if err != nil {
		msg := err.Error()
		if appErr, ok := apperror.AsAppError(err); ok {
			msg = appErr.Message
		}
		m.notifier.Failure(ctx, msg)
		return
	}
	m.notifier.Success(ctx, m.successMessage(op))
}

func (m *Manager[T]) successMessage(op string) string {
	switch op {
	case OpSoftDelete:
		return m.displayName + " moved to trash"
	case OpRestore:
		return m.displayName + " restored"
	case OpPermanentDelete:
		return m.displayName + " permanently deleted"
	}
	return m.displayName + " updated"
}
