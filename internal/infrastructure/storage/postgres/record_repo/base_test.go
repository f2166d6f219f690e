package record_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/domain/projects"
)

func newTestRepo() *Repo[*entity.BaseEntity] {
	r := New(nil, Config[*entity.BaseEntity]{
		EntityType: "project",
		TableName:  "projects",
		SelectCols: []string{"id", "version", "is_deleted"},
		SearchCol:  "name",
		NewFn:      func() *entity.BaseEntity { return &entity.BaseEntity{} },
	})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	return r
}

func TestSelectQuery(t *testing.T) {
	r := newTestRepo()
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   lifecycle.ListFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "active only by default",
			filter:   lifecycle.ListFilter{},
			wantSQL:  "SELECT id, version, is_deleted FROM projects WHERE is_deleted = $1 ORDER BY created_at ASC, id ASC",
			wantArgs: []any{false},
		},
		{
			name:     "include deleted",
			filter:   lifecycle.ListFilter{IncludeDeleted: true},
			wantSQL:  "SELECT id, version, is_deleted FROM projects ORDER BY created_at ASC, id ASC",
			wantArgs: nil,
		},
		{
			name:     "expired trash",
			filter:   lifecycle.ListFilter{OnlyDeleted: true, ExpiredBefore: &cutoff},
			wantSQL:  "SELECT id, version, is_deleted FROM projects WHERE is_deleted = $1 AND restoration_eligible_until < $2 ORDER BY created_at ASC, id ASC",
			wantArgs: []any{true, cutoff},
		},
		{
			name:     "search with paging",
			filter:   lifecycle.ListFilter{Search: "apo", Limit: 10, Offset: 20},
			wantSQL:  "SELECT id, version, is_deleted FROM projects WHERE is_deleted = $1 AND name ILIKE $2 ORDER BY created_at ASC, id ASC LIMIT 10 OFFSET 20",
			wantArgs: []any{false, "%apo%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := r.selectQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUpdateLifecycleQuery(t *testing.T) {
	r := newTestRepo()
	entityID := id.New()
	fields := entity.SoftDeletedFields("user-1", r.now(), time.Hour)

	sql, args, err := r.updateLifecycleQuery(entityID, 3, false, fields).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE projects SET is_deleted = $1, deleted_at = $2, deleted_by = $3, restoration_eligible_until = $4, version = version + 1, updated_at = $5 "+
			"WHERE id = $6 AND version = $7 AND is_deleted = $8 RETURNING id, version, is_deleted",
		sql)
	require.Len(t, args, 8)
	assert.Equal(t, true, args[0])
	assert.Equal(t, fields.DeletedBy, args[2])
	assert.Equal(t, r.now(), args[4])
	assert.Equal(t, entityID, args[5])
	assert.Equal(t, 3, args[6])
	assert.Equal(t, false, args[7])
}

func TestUpdateLifecycleQuery_Restore(t *testing.T) {
	r := newTestRepo()

	_, args, err := r.updateLifecycleQuery(id.New(), 4, true, entity.LifecycleFields{}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, false, args[0])
	assert.Nil(t, args[1].(*time.Time))
	assert.Nil(t, args[2].(*string))
	assert.Nil(t, args[3].(*time.Time))
	assert.Equal(t, true, args[7], "restore expects the row to still be deleted")
}

func TestDeleteQuery_FencesVersionAndState(t *testing.T) {
	r := newTestRepo()
	entityID := id.New()

	sql, args, err := r.deleteQuery(entityID, 5, true).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM projects WHERE id = $1 AND version = $2 AND is_deleted = $3", sql)
	assert.Equal(t, []any{entityID, 5, true}, args)
}

func TestInsertQuery_Project(t *testing.T) {
	r := NewProjectRepo(nil)
	p := projects.NewProject("Apollo")

	sql, args, err := r.insertQuery(p)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "INSERT INTO projects ("), sql)
	assert.Contains(t, sql, "restoration_eligible_until")
	assert.Contains(t, sql, "budget")
	assert.Len(t, args, len(r.selectCols))
}

func TestNewPortfolioRepo_Columns(t *testing.T) {
	r := NewPortfolioRepo(nil)

	assert.Equal(t, "portfolios", r.tableName)
	assert.Contains(t, r.selectCols, "owner_id")
	assert.Contains(t, r.selectCols, "is_deleted")
}
