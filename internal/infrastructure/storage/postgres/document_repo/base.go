// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/core/id"
	"receiptflow/internal/infrastructure/storage/postgres"
)

// immutableCols are never part of an UPDATE's SET list.
var immutableCols = map[string]bool{
	"id":         true,
	"version":    true,
	"created_at": true,
	"created_by": true,
}

// nullableRefCols are optional references stored as NULL and read back as id.Nil.
var nullableRefCols = map[string]bool{
	"supplier_id": true,
}

// BaseDocumentRepo provides the header operations of document tables:
// insert, optimistic update, hard delete and (locking) reads.
type BaseDocumentRepo[T any] struct {
	txManager  *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	newFn      func() T
}

func NewBaseDocumentRepo[T any](
	txManager *postgres.TxManager,
	tableName string,
	entityName string,
	selectCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	return &BaseDocumentRepo[T]{
		txManager:  txManager,
		tableName:  tableName,
		entityName: entityName,
		selectCols: selectCols,
		newFn:      newFn,
	}
}

func (r *BaseDocumentRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T]) columnValues(entity T) map[string]any {
	data := postgres.StructToMap(entity)
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = columnValue(val)
		}
	}
	return filtered
}

// columnValue stores unset references as NULL.
func columnValue(val any) any {
	if ref, ok := val.(id.ID); ok && id.IsNil(ref) {
		return nil
	}
	return val
}

// Create inserts the document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	sql, args, err := postgres.Builder().
		Insert(r.tableName).
		SetMap(r.columnValues(entity)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entityName, "id", fmt.Sprint(postgres.StructToMap(entity)["id"])).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// updateQuery builds the optimistic UPDATE for entity at the given version.
func (r *BaseDocumentRepo[T]) updateQuery(entity T) (squirrel.UpdateBuilder, any, int, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, nil, 0, fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, nil, 0, fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	set := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if immutableCols[col] {
			continue
		}
		if val, ok := data[col]; ok {
			set[col] = columnValue(val)
		}
	}

	q := postgres.Builder().
		Update(r.tableName).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})
	return q, entityID, version, nil
}

// Update stores the header if version still matches and returns the new version.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) (int, error) {
	q, entityID, version, err := r.updateQuery(entity)
	if err != nil {
		return 0, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return 0, apperror.NewConcurrentModification(r.entityName, entityID).
			WithDetail("expected_version", version)
	}
	return version + 1, nil
}

// Delete physically removes the document. Lines go with it (ON DELETE CASCADE).
func (r *BaseDocumentRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := postgres.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, entityID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	cols := make([]string, len(r.selectCols))
	for i, col := range r.selectCols {
		if nullableRefCols[col] {
			col = fmt.Sprintf("COALESCE(%s, '%s'::uuid) AS %s", col, id.Nil(), col)
		}
		cols[i] = col
	}
	return postgres.Builder().
		Select(cols...).
		From(r.tableName)
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, entityID id.ID, forUpdate bool) (T, error) {
	entity := r.newFn()
	q := r.baseSelect().Where(squirrel.Eq{"id": entityID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.entityName, entityID.String())
		}
		return entity, fmt.Errorf("get %s: %w", r.entityName, err)
	}
	return entity, nil
}

// GetByID retrieves the document header.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, entityID, false)
}

// GetForUpdate retrieves the header holding a row lock until the transaction ends.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	if r.txManager.GetTx(ctx) == nil {
		return r.newFn(), fmt.Errorf("get for update %s: requires transaction context", r.entityName)
	}
	return r.get(ctx, entityID, true)
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	orderBy = strings.TrimSpace(orderBy)
	if orderBy == "" {
		return "created_at DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	for _, col := range r.selectCols {
		if col == field {
			return field + " " + direction, nil
		}
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}
