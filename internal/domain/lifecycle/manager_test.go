package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/domain/projects"
	"portfolio/internal/infrastructure/cache"
	"portfolio/internal/infrastructure/notify"
	"portfolio/internal/infrastructure/storage/memory"
	"portfolio/pkg/logger"
)

// --- test doubles ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// flakyStore fails UpdateLifecycle / Delete on demand and can run hooks
// right before a write to simulate a competing writer.
type flakyStore struct {
	*memory.RecordStore[*projects.Project]
	updateErr    error
	deleteErr    error
	beforeUpdate func()
	beforeDelete func()
}

func (s *flakyStore) UpdateLifecycle(ctx context.Context, entityID id.ID, v int, deleted bool, fields entity.LifecycleFields) (*projects.Project, error) {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.RecordStore.UpdateLifecycle(ctx, entityID, v, deleted, fields)
}

func (s *flakyStore) Delete(ctx context.Context, entityID id.ID, v int, deleted bool) error {
	if s.beforeDelete != nil {
		hook := s.beforeDelete
		s.beforeDelete = nil
		hook()
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.RecordStore.Delete(ctx, entityID, v, deleted)
}

type flakyAudit struct {
	*memory.AuditLog
	appendErr error
}

func (a *flakyAudit) Append(ctx context.Context, in audit.EntryInput) (audit.Entry, error) {
	if a.appendErr != nil {
		return audit.Entry{}, a.appendErr
	}
	return a.AuditLog.Append(ctx, in)
}

type countingRecorder struct {
	mu            sync.Mutex
	operations    map[string]int
	auditFailures int
}

func (r *countingRecorder) ObserveOperation(entityType, operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.operations == nil {
		r.operations = make(map[string]int)
	}
	r.operations[operation+"/"+outcome]++
}

func (r *countingRecorder) AuditFailure(string, audit.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auditFailures++
}

// --- fixture ---

type fixture struct {
	ctx      context.Context
	clock    *fakeClock
	mem      *memory.RecordStore[*projects.Project]
	store    *flakyStore
	auditMem *memory.AuditLog
	audit    *flakyAudit
	sessions *cache.Sessions[*projects.Project]
	toasts   *notify.Collector
	recorder *countingRecorder
	mgr      *lifecycle.Manager[*projects.Project]
}

type fixtureOption func(*lifecycle.Config[*projects.Project], *fixture)

func transactional() fixtureOption {
	return func(cfg *lifecycle.Config[*projects.Project], f *fixture) {
		cfg.Policy.AuditMode = lifecycle.AuditTransactional
		cfg.TxManager = memory.NewTxManager(f.mem, f.auditMem)
	}
}

func withGuard(expr string) fixtureOption {
	return func(cfg *lifecycle.Config[*projects.Project], _ *fixture) {
		cfg.Policy.PurgeGuard = lifecycle.MustPurgeGuard(expr)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	f := &fixture{
		clock:    &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		auditMem: memory.NewAuditLog(),
		sessions: cache.NewSessions((*projects.Project).Clone),
		toasts:   notify.NewCollector(),
		recorder: &countingRecorder{},
	}
	f.mem = memory.NewRecordStore(projects.EntityType, (*projects.Project).Clone,
		memory.WithClock[*projects.Project](f.clock.Now))
	f.store = &flakyStore{RecordStore: f.mem}
	f.audit = &flakyAudit{AuditLog: f.auditMem}
	f.ctx = notify.WithCollector(logger.WithLogger(context.Background(), logger.Nop()), f.toasts)

	cfg := lifecycle.Config[*projects.Project]{
		EntityType:  projects.EntityType,
		DisplayName: projects.DisplayName,
		Store:       f.store,
		Audit:       f.audit,
		Policy:      lifecycle.DefaultPolicy(),
		Observer:    f.sessions,
		Notifier:    notify.New(logger.Nop()),
		Recorder:    f.recorder,
		Now:         f.clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg, f)
	}

	mgr, err := lifecycle.NewManager(cfg)
	require.NoError(t, err)
	f.mgr = mgr
	return f
}

func (f *fixture) seed(t *testing.T, name string) *projects.Project {
	t.Helper()
	p := projects.NewProject(name)
	require.NoError(t, f.mem.Insert(f.ctx, p))
	return p
}

func (f *fixture) load(t *testing.T, pid id.ID) *projects.Project {
	t.Helper()
	p, err := f.mem.SelectOne(f.ctx, pid)
	require.NoError(t, err)
	return p
}

func (f *fixture) setDeadline(t *testing.T, pid id.ID, until time.Time) {
	t.Helper()
	p := f.load(t, pid)
	p.RestorationEligibleUntil = &until
	f.mem.Put(p)
}

func (f *fixture) history(t *testing.T, pid id.ID) []audit.Entry {
	t.Helper()
	entries, err := f.auditMem.QueryByEntity(f.ctx, projects.EntityType, pid)
	require.NoError(t, err)
	return entries
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// --- soft delete ---

func TestSoftDelete_SetsLifecycleFields(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	got, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	now := f.clock.Now()
	assert.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(now))
	require.NotNil(t, got.DeletedBy)
	assert.Equal(t, "user-1", *got.DeletedBy)
	require.NotNil(t, got.RestorationEligibleUntil)
	assert.WithinDuration(t, now.Add(30*24*time.Hour), *got.RestorationEligibleUntil, time.Second)
	assert.NoError(t, got.LifecycleFields.Validate())
	assert.Equal(t, p.Version+1, got.Version)
	assert.Equal(t, "Apollo", got.Name, "domain fields are untouched")

	stored := f.load(t, p.ID)
	assert.True(t, stored.IsDeleted)
}

func TestSoftDelete_AppendsAuditEntry(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	entries := f.history(t, p.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionSoftDelete, entries[0].Action)
	assert.Equal(t, projects.EntityType, entries[0].EntityType)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, "user-1", *entries[0].UserID)

	meta, err := entries[0].DecodeMetadata()
	require.NoError(t, err)
	assert.Equal(t, true, meta["is_deleted"])
	assert.Equal(t, "user-1", meta["deleted_by"])
	assert.NotNil(t, meta["deleted_at"])
	assert.NotNil(t, meta["restoration_eligible_until"])
}

func TestSoftDelete_UsesConfiguredWindow(t *testing.T) {
	f := newFixture(t, func(cfg *lifecycle.Config[*projects.Project], _ *fixture) {
		cfg.Policy.RestorationWindow = 7 * 24 * time.Hour
	})
	p := f.seed(t, "Apollo")

	got, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), *got.RestorationEligibleUntil)
}

func TestSoftDelete_AlreadyDeleted(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	_, err = f.mgr.SoftDelete(f.ctx, p.ID, "user-2")

	assertCode(t, err, apperror.CodeInvalidState)
	assert.Len(t, f.history(t, p.ID), 1, "no audit entry for a rejected operation")
	assert.Equal(t, "user-1", *f.load(t, p.ID).DeletedBy)
}

func TestSoftDelete_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "")

	assertCode(t, err, apperror.CodeUnauthorized)
	assert.False(t, f.load(t, p.ID).IsDeleted)
	assert.Zero(t, f.auditMem.Len())
}

func TestSoftDelete_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.mgr.SoftDelete(f.ctx, id.New(), "user-1")

	assertCode(t, err, apperror.CodeNotFound)
}

func TestSoftDelete_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	f.sessions.For("user-1").Replace([]*projects.Project{p})
	f.store.updateErr = errors.New("connection refused")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodePersistence)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Zero(t, f.auditMem.Len(), "audit must not be written when the entity write fails")
	assert.False(t, f.sessions.For("user-1").Items()[0].IsDeleted, "cache untouched on failure")

	last, ok := f.toasts.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, last.Level)
	assert.Contains(t, last.Text, "connection refused")
}

func TestSoftDelete_UpdatesCache(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	other := f.seed(t, "Gemini")
	session := f.sessions.For("user-1")
	session.Replace([]*projects.Project{p, other})
	session.Select(p)

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	items := session.Items()
	assert.True(t, items[0].IsDeleted)
	assert.False(t, items[1].IsDeleted)
	sel, ok := session.Selected()
	require.True(t, ok)
	assert.True(t, sel.IsDeleted)

	last, ok := f.toasts.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelSuccess, last.Level)
	assert.Equal(t, "Project moved to trash", last.Text)
}

// --- restore ---

func TestRestore_WithinWindow(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	got, err := f.mgr.Restore(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.DeletedAt)
	assert.Nil(t, got.DeletedBy)
	assert.Nil(t, got.RestorationEligibleUntil)
	assert.NoError(t, got.LifecycleFields.Validate())

	last, _ := f.toasts.Last()
	assert.Equal(t, "Project restored", last.Text)
}

func TestRestore_RoundTrip(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	before := f.load(t, p.ID)

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	after, err := f.mgr.Restore(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	assert.Equal(t, before.LifecycleFields, after.LifecycleFields)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Budget.String(), after.Budget.String())
	assert.Equal(t, before.Version+2, after.Version)
}

func TestRestore_WindowExpired(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	f.setDeadline(t, p.ID, f.clock.Now().Add(-time.Hour))

	for range 3 {
		_, err = f.mgr.Restore(f.ctx, p.ID, "user-1")

		assertCode(t, err, apperror.CodeRestorationWindowExpired)
		assert.Contains(t, err.Error(), "restoration window has expired")
		assert.True(t, f.load(t, p.ID).IsDeleted)
		assert.Len(t, f.history(t, p.ID), 1, "only the soft_delete entry")
	}

	last, _ := f.toasts.Last()
	assert.Equal(t, "Project restoration window has expired", last.Text)
}

func TestRestore_WindowExpiresWithTime(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	f.clock.Advance(31 * 24 * time.Hour)

	_, err = f.mgr.Restore(f.ctx, p.ID, "user-1")
	assertCode(t, err, apperror.CodeRestorationWindowExpired)
}

func TestRestore_WindowBoundary(t *testing.T) {
	tests := []struct {
		name    string
		offset  time.Duration
		wantErr bool
	}{
		{"one second past deadline", -time.Second, true},
		{"exactly at deadline", 0, false},
		{"one second before deadline", time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := f.seed(t, "Apollo")
			_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
			require.NoError(t, err)
			f.setDeadline(t, p.ID, f.clock.Now().Add(tt.offset))

			_, err = f.mgr.Restore(f.ctx, p.ID, "user-1")

			if tt.wantErr {
				assertCode(t, err, apperror.CodeRestorationWindowExpired)
				assert.True(t, f.load(t, p.ID).IsDeleted)
				return
			}
			require.NoError(t, err)
			assert.False(t, f.load(t, p.ID).IsDeleted)
		})
	}
}

func TestRestore_NotDeleted(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	_, err := f.mgr.Restore(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodeInvalidState)
	assert.Contains(t, err.Error(), "not soft-deleted")
	assert.Empty(t, f.history(t, p.ID))
}

func TestRestore_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	_, err = f.mgr.Restore(f.ctx, p.ID, "")

	assertCode(t, err, apperror.CodeUnauthorized)
	assert.True(t, f.load(t, p.ID).IsDeleted)
}

func TestRestore_AuditCompleteness(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	require.Len(t, f.history(t, p.ID), 1)

	_, err = f.mgr.Restore(f.ctx, p.ID, "user-2")
	require.NoError(t, err)

	entries, err := f.mgr.History(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionRestore, entries[0].Action, "newest first")
	assert.Equal(t, "user-2", *entries[0].UserID)
	assert.Equal(t, audit.ActionSoftDelete, entries[1].Action)

	meta, err := entries[0].DecodeMetadata()
	require.NoError(t, err)
	previous, ok := meta["previous"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-1", previous["deleted_by"])
}

// --- audit modes ---

func TestBestEffortAudit_FailureKeepsEntityChange(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	f.audit.appendErr = errors.New("audit table unavailable")

	got, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")

	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.True(t, f.load(t, p.ID).IsDeleted)
	assert.Zero(t, f.auditMem.Len())
	assert.Equal(t, 1, f.recorder.auditFailures)
}

func TestTransactionalAudit_FailureRollsBack(t *testing.T) {
	f := newFixture(t, transactional())
	p := f.seed(t, "Apollo")
	f.sessions.For("user-1").Replace([]*projects.Project{p})
	f.audit.appendErr = errors.New("audit table unavailable")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodePersistence)
	assert.False(t, f.load(t, p.ID).IsDeleted, "entity write rolled back")
	assert.Equal(t, p.Version, f.load(t, p.ID).Version)
	assert.False(t, f.sessions.For("user-1").Items()[0].IsDeleted)
	assert.Equal(t, 1, f.recorder.auditFailures)
}

func TestTransactionalAudit_Success(t *testing.T) {
	f := newFixture(t, transactional())
	p := f.seed(t, "Apollo")

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	_, err = f.mgr.Restore(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	assert.Len(t, f.history(t, p.ID), 2)
}

// --- concurrency ---

func TestConcurrentModification_StaleVersion(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	f.store.beforeUpdate = func() {
		// another session writes between our read and our write
		cur := f.load(t, p.ID)
		cur.Version++
		f.mem.Put(cur)
	}

	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodeConcurrentModification)
	assert.False(t, f.load(t, p.ID).IsDeleted)
	assert.Zero(t, f.auditMem.Len())
}

func TestConcurrentSoftDelete_ExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t,
				apperror.HasCode(err, apperror.CodeInvalidState) || apperror.IsConcurrentModification(err),
				"worker %d: unexpected error %v", i, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, f.history(t, p.ID), 1)
}

// --- permanent delete ---

func TestPermanentDelete_RequiresSoftDeleteByDefault(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")

	err := f.mgr.PermanentDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodeInvalidState)
	assert.Equal(t, 1, f.mem.Len())
}

func TestPermanentDelete_AfterSoftDelete(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	f.sessions.For("user-1").Replace([]*projects.Project{p})
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)

	require.NoError(t, f.mgr.PermanentDelete(f.ctx, p.ID, "user-1"))

	assert.Zero(t, f.mem.Len())
	assert.Empty(t, f.sessions.For("user-1").Items())

	_, err = f.mgr.Get(f.ctx, p.ID)
	assertCode(t, err, apperror.CodeNotFound)

	entries := f.history(t, p.ID)
	require.Len(t, entries, 2, "the audit trail outlives the record")
	assert.Equal(t, audit.ActionPermanentDelete, entries[0].Action)

	last, _ := f.toasts.Last()
	assert.Equal(t, "Project permanently deleted", last.Text)
}

func TestPermanentDelete_PermissiveGuard(t *testing.T) {
	f := newFixture(t, withGuard("true"))
	p := f.seed(t, "Apollo")

	require.NoError(t, f.mgr.PermanentDelete(f.ctx, p.ID, ""))

	assert.Zero(t, f.mem.Len())
	entries := f.history(t, p.ID)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].UserID)
}

func TestPermanentDelete_RestoredMeanwhile(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	f.store.beforeDelete = func() {
		// another session restores after the guard passed
		_, err := f.mgr.Restore(f.ctx, p.ID, "user-2")
		require.NoError(t, err)
	}

	err = f.mgr.PermanentDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodeConcurrentModification)
	require.Equal(t, 1, f.mem.Len())
	assert.False(t, f.load(t, p.ID).IsDeleted)

	entries := f.history(t, p.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionRestore, entries[0].Action, "no permanent_delete entry")
}

func TestPermanentDelete_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	f.store.deleteErr = errors.New("disk full")

	err = f.mgr.PermanentDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodePersistence)
	assert.Equal(t, 1, f.mem.Len())
	assert.Len(t, f.history(t, p.ID), 1)
}

func TestPermanentDelete_TransactionalRollback(t *testing.T) {
	f := newFixture(t, transactional())
	p := f.seed(t, "Apollo")
	_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
	require.NoError(t, err)
	f.audit.appendErr = errors.New("audit table unavailable")

	err = f.mgr.PermanentDelete(f.ctx, p.ID, "user-1")

	assertCode(t, err, apperror.CodePersistence)
	assert.Equal(t, 1, f.mem.Len(), "delete rolled back")
}

// --- queries ---

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, "Apollo")
	b := f.seed(t, "Gemini")
	c := f.seed(t, "Mercury")
	_, err := f.mgr.SoftDelete(f.ctx, b.ID, "user-1")
	require.NoError(t, err)

	ids := func(items []*projects.Project) []id.ID {
		out := make([]id.ID, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	active, err := f.mgr.List(f.ctx, lifecycle.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{a.ID, c.ID}, ids(active))

	all, err := f.mgr.List(f.ctx, lifecycle.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{a.ID, b.ID, c.ID}, ids(all))

	trash, err := f.mgr.List(f.ctx, lifecycle.ListFilter{OnlyDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{b.ID}, ids(trash))
}

func TestList_RereadsStore(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "Apollo")

	first, err := f.mgr.List(f.ctx, lifecycle.ListFilter{})
	require.NoError(t, err)
	f.seed(t, "Gemini")
	second, err := f.mgr.List(f.ctx, lifecycle.ListFilter{})
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	active := f.seed(t, "Apollo")
	fresh := f.seed(t, "Gemini")
	stale := f.seed(t, "Mercury")

	_, err := f.mgr.SoftDelete(f.ctx, stale.ID, "user-1")
	require.NoError(t, err)
	f.clock.Advance(20 * 24 * time.Hour)
	_, err = f.mgr.SoftDelete(f.ctx, fresh.ID, "user-1")
	require.NoError(t, err)
	f.clock.Advance(11 * 24 * time.Hour)

	n, err := f.mgr.PurgeExpired(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.mgr.Get(f.ctx, stale.ID)
	assertCode(t, err, apperror.CodeNotFound)
	_, err = f.mgr.Get(f.ctx, fresh.ID)
	assert.NoError(t, err)
	_, err = f.mgr.Get(f.ctx, active.ID)
	assert.NoError(t, err)

	n, err = f.mgr.PurgeExpired(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeExpired_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, "Apollo")
	b := f.seed(t, "Gemini")
	for _, p := range []*projects.Project{a, b} {
		_, err := f.mgr.SoftDelete(f.ctx, p.ID, "user-1")
		require.NoError(t, err)
	}
	f.clock.Advance(31 * 24 * time.Hour)
	f.store.deleteErr = errors.New("disk full")

	n, err := f.mgr.PurgeExpired(f.ctx)

	assert.Zero(t, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 2, f.mem.Len())
}

// --- construction ---

func TestNewManager_Validation(t *testing.T) {
	store := memory.NewRecordStore(projects.EntityType, (*projects.Project).Clone)
	log := memory.NewAuditLog()

	tests := []struct {
		name string
		cfg  lifecycle.Config[*projects.Project]
	}{
		{"missing entity type", lifecycle.Config[*projects.Project]{Store: store, Audit: log}},
		{"missing store", lifecycle.Config[*projects.Project]{EntityType: "project", Audit: log}},
		{"missing audit", lifecycle.Config[*projects.Project]{EntityType: "project", Store: store}},
		{"negative window", lifecycle.Config[*projects.Project]{
			EntityType: "project", Store: store, Audit: log,
			Policy: lifecycle.Policy{RestorationWindow: -time.Hour},
		}},
		{"unknown audit mode", lifecycle.Config[*projects.Project]{
			EntityType: "project", Store: store, Audit: log,
			Policy: lifecycle.Policy{AuditMode: "sometimes"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lifecycle.NewManager(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewManager_Defaults(t *testing.T) {
	mgr, err := lifecycle.NewManager(lifecycle.Config[*projects.Project]{
		EntityType: projects.EntityType,
		Store:      memory.NewRecordStore(projects.EntityType, (*projects.Project).Clone),
		Audit:      memory.NewAuditLog(),
	})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.DefaultRestorationWindow, mgr.Policy().RestorationWindow)
	assert.Equal(t, lifecycle.AuditBestEffort, mgr.Policy().AuditMode)
	assert.Equal(t, projects.EntityType, mgr.EntityType())
}

func TestManager_Create(t *testing.T) {
	f := newFixture(t)

	t.Run("inserts active record", func(t *testing.T) {
		created, err := f.mgr.Create(f.ctx, projects.NewProject("  Apollo  "), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "Apollo", created.Name)
		assert.False(t, created.IsDeleted)
		assert.Equal(t, 1, f.mem.Len())
		assert.Empty(t, f.history(t, created.ID), "creation is not audited")
	})

	t.Run("requires actor", func(t *testing.T) {
		_, err := f.mgr.Create(f.ctx, projects.NewProject("Gemini"), "")
		assertCode(t, err, apperror.CodeUnauthorized)
	})

	t.Run("validates payload", func(t *testing.T) {
		_, err := f.mgr.Create(f.ctx, projects.NewProject(" "), "user-1")
		assertCode(t, err, apperror.CodeValidation)
	})

	t.Run("rejects soft-deleted input", func(t *testing.T) {
		p := projects.NewProject("Mercury")
		*p.Lifecycle() = entity.SoftDeletedFields("user-1", f.clock.Now(), time.Hour)
		_, err := f.mgr.Create(f.ctx, p, "user-1")
		assertCode(t, err, apperror.CodeValidation)
	})
}
