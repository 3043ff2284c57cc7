// Package repo implements the domain repositories on PostgreSQL with squirrel
// for SQL and pgxscan for row mapping. Every query resolves its querier from
// the transaction carried by ctx.
package repo

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/infrastructure/storage/postgres"
)

// immutableColumns are never rewritten by an update.
var immutableColumns = []string{"id", "branch_id", "version", "created_at", "created_by"}

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// base carries what every repository needs.
type base struct {
	txm *postgres.TxManager
}

func newBase(txm *postgres.TxManager) base {
	return base{txm: txm}
}

func (b base) querier(ctx context.Context) postgres.Querier {
	return b.txm.GetQuerier(ctx)
}

// get scans exactly one row into dst.
func (b base) get(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, b.querier(ctx), dst, sql, args...)
}

// list scans all rows into dst, a pointer to a slice.
func (b base) list(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, b.querier(ctx), dst, sql, args...)
}

// exec runs a statement and returns the affected row count.
func (b base) exec(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	tag, err := b.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// insert writes v's columns into table, translating constraint violations.
func (b base) insert(ctx context.Context, table, entityName string, columns []string, v any) error {
	if _, err := b.exec(ctx, insertQuery(table, columns, v)); err != nil {
		return fmt.Errorf("insert %s: %w", table, postgres.TranslateError(err, entityName))
	}
	return nil
}

// insertRows writes many rows with COPY for large batches inside a
// transaction and a multi-row INSERT otherwise.
func (b base) insertRows(ctx context.Context, table, entityName string, columns []string, items []any) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(items))
	for _, item := range items {
		data := postgres.StructToMap(item)
		row := make([]any, 0, len(columns))
		for _, col := range columns {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}

	if postgres.UseCopy(len(rows)) && b.txm.GetTx(ctx) != nil {
		if _, err := postgres.NewBatchInserter(b.txm).CopyFromSlice(ctx, table, columns, rows); err != nil {
			return postgres.TranslateError(err, entityName)
		}
		return nil
	}

	q := psql.Insert(table).Columns(columns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	if _, err := b.exec(ctx, q); err != nil {
		return fmt.Errorf("insert %s: %w", table, postgres.TranslateError(err, entityName))
	}
	return nil
}

// updateVersioned rewrites the mutable columns of v where the stored version
// equals the expected one and bumps it. Zero affected rows is a conflict.
func (b base) updateVersioned(ctx context.Context, table, entityName string, columns []string, v any, e *entity.BaseEntity) error {
	n, err := b.exec(ctx, versionedUpdateQuery(table, columns, v, e))
	if err != nil {
		return fmt.Errorf("update %s: %w", table, postgres.TranslateError(err, entityName))
	}
	if n == 0 {
		return apperror.NewConcurrencyConflict(entityName, e.ID)
	}
	return nil
}

// insertQuery builds an INSERT of the given columns taken from v's db tags.
func insertQuery(table string, columns []string, v any) squirrel.InsertBuilder {
	data := postgres.StructToMap(v)
	values := make([]any, 0, len(columns))
	for _, col := range columns {
		values = append(values, data[col])
	}
	return psql.Insert(table).Columns(columns...).Values(values...)
}

// versionedUpdateQuery builds the optimistic UPDATE guarded by the expected version.
func versionedUpdateQuery(table string, columns []string, v any, e *entity.BaseEntity) squirrel.UpdateBuilder {
	data := postgres.StructToMap(v)
	expected := e.ExpectedVersion()

	q := psql.Update(table)
	for _, col := range columns {
		if slices.Contains(immutableColumns, col) {
			continue
		}
		q = q.Set(col, data[col])
	}
	return q.Set("version", expected+1).
		Where(squirrel.Eq{"id": e.ID, "version": expected})
}

// without returns columns minus the excluded ones.
func without(columns []string, excluded ...string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if !slices.Contains(excluded, c) {
			out = append(out, c)
		}
	}
	return out
}

// live filters out soft-deleted rows.
var live = squirrel.Eq{"deletion_mark": false}
