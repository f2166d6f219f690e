// Package record_repo provides the PostgreSQL lifecycle.RecordStore shared by
// all deletable record tables.
package record_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"portfolio/internal/core/apperror"
	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/lifecycle"
	"portfolio/internal/infrastructure/storage/postgres"
)

// pgForeignKeyViolation is the SQLSTATE of a foreign key violation.
const pgForeignKeyViolation = "23503"

// Repo is a generic lifecycle.RecordStore over one table. Columns come from
// the record's "db" tags. Rows are ordered by created_at, id.
type Repo[T entity.Deletable] struct {
	txm        *postgres.TxManager
	entityType string
	tableName  string
	selectCols []string
	searchCol  string
	newFn      func() T
	now        func() time.Time
}

// Config describes one record table.
type Config[T entity.Deletable] struct {
	EntityType string
	TableName  string
	SelectCols []string

	// SearchCol is matched by ListFilter.Search with ILIKE. Empty disables search.
	SearchCol string

	NewFn func() T
}

func New[T entity.Deletable](txm *postgres.TxManager, cfg Config[T]) *Repo[T] {
	return &Repo[T]{
		txm:        txm,
		entityType: cfg.EntityType,
		tableName:  cfg.TableName,
		selectCols: cfg.SelectCols,
		searchCol:  cfg.SearchCol,
		newFn:      cfg.NewFn,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var _ lifecycle.RecordStore[*entity.BaseEntity] = (*Repo[*entity.BaseEntity])(nil)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func (r *Repo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Insert stores a new record using its "db" tags.
func (r *Repo[T]) Insert(ctx context.Context, e T) error {
	sql, args, err := r.insertQuery(e)
	if err != nil {
		return err
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *Repo[T]) insertQuery(e T) (string, []any, error) {
	data := postgres.StructToMap(e)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in %T", e)
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(filtered).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return sql, args, nil
}

func (r *Repo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tableName)
}

// SelectOne returns a record by id regardless of its lifecycle state.
func (r *Repo[T]) SelectOne(ctx context.Context, entityID id.ID) (T, error) {
	e := r.newFn()

	sql, args, err := r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1).ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound(r.entityType, entityID.String())
		}
		return e, fmt.Errorf("get %s by id: %w", r.tableName, err)
	}
	return e, nil
}

// Select lists records matching filter.
func (r *Repo[T]) Select(ctx context.Context, filter lifecycle.ListFilter) ([]T, error) {
	sql, args, err := r.selectQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}
	return items, nil
}

func (r *Repo[T]) selectQuery(filter lifecycle.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()

	switch {
	case filter.OnlyDeleted:
		q = q.Where(squirrel.Eq{"is_deleted": true})
	case !filter.IncludeDeleted:
		q = q.Where(squirrel.Eq{"is_deleted": false})
	}

	if filter.ExpiredBefore != nil {
		q = q.Where(squirrel.Lt{"restoration_eligible_until": *filter.ExpiredBefore})
	}

	if filter.Search != "" && r.searchCol != "" {
		q = q.Where(squirrel.ILike{r.searchCol: "%" + filter.Search + "%"})
	}

	q = q.OrderBy("created_at ASC", "id ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// UpdateLifecycle writes the four lifecycle columns in one conditional
// statement. Zero rows means either the record is gone or someone else
// changed it since it was read.
func (r *Repo[T]) UpdateLifecycle(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool, fields entity.LifecycleFields) (T, error) {
	e := r.newFn()

	sql, args, err := r.updateLifecycleQuery(entityID, expectedVersion, expectedDeleted, fields).ToSql()
	if err != nil {
		return e, fmt.Errorf("build update: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), e, sql, args...); err != nil {
		if !pgxscan.NotFound(err) {
			return e, fmt.Errorf("update %s lifecycle: %w", r.tableName, err)
		}
		exists, existsErr := r.exists(ctx, entityID)
		if existsErr != nil {
			return e, existsErr
		}
		if !exists {
			return e, apperror.NewNotFound(r.entityType, entityID.String())
		}
		return e, apperror.NewConcurrentModification(r.entityType, entityID.String())
	}
	return e, nil
}

func (r *Repo[T]) updateLifecycleQuery(entityID id.ID, expectedVersion int, expectedDeleted bool, fields entity.LifecycleFields) squirrel.UpdateBuilder {
	return r.Builder().
		Update(r.tableName).
		Set("is_deleted", fields.IsDeleted).
		Set("deleted_at", fields.DeletedAt).
		Set("deleted_by", fields.DeletedBy).
		Set("restoration_eligible_until", fields.RestorationEligibleUntil).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": expectedVersion}).
		Where(squirrel.Eq{"is_deleted": expectedDeleted}).
		Suffix("RETURNING " + strings.Join(r.selectCols, ", "))
}

func (r *Repo[T]) exists(ctx context.Context, entityID id.ID) (bool, error) {
	sql, args, err := r.Builder().Select("1").From(r.tableName).Where(squirrel.Eq{"id": entityID}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", r.tableName, err)
	}
	return true, nil
}

// Delete physically removes a record the caller has seen at expectedVersion
// with the given deletion flag. Fencing mirrors UpdateLifecycle.
func (r *Repo[T]) Delete(ctx context.Context, entityID id.ID, expectedVersion int, expectedDeleted bool) error {
	sql, args, err := r.deleteQuery(entityID, expectedVersion, expectedDeleted).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NewInvalidState(fmt.Sprintf("%s is still referenced by other records", r.entityType)).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		exists, existsErr := r.exists(ctx, entityID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return apperror.NewNotFound(r.entityType, entityID.String())
		}
		return apperror.NewConcurrentModification(r.entityType, entityID.String())
	}
	return nil
}

func (r *Repo[T]) deleteQuery(entityID id.ID, expectedVersion int, expectedDeleted bool) squirrel.DeleteBuilder {
	return r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": expectedVersion}).
		Where(squirrel.Eq{"is_deleted": expectedDeleted})
}
