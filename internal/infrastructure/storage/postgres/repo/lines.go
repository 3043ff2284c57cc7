package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/infrastructure/storage/postgres"
)

// lineStore persists the child lines of a document table. Lines carry no
// version of their own; the header version guards them.
type lineStore struct {
	base
	table      string
	entityName string
	parentCol  string
	columns    []string
}

func newLineStore(b base, table, entityName, parentCol string, columns []string) lineStore {
	return lineStore{base: b, table: table, entityName: entityName, parentCol: parentCol, columns: columns}
}

// listQuery selects live lines of a parent ordered by line number.
func (s lineStore) listQuery(parentID id.ID) squirrel.SelectBuilder {
	return psql.Select(s.columns...).
		From(s.table).
		Where(squirrel.Eq{s.parentCol: parentID}).
		Where(live).
		OrderBy("line_no")
}

func (s lineStore) list(ctx context.Context, dst any, parentID id.ID) error {
	if err := s.base.list(ctx, dst, s.listQuery(parentID)); err != nil {
		return fmt.Errorf("list %s: %w", s.table, err)
	}
	return nil
}

func (s lineStore) insert(ctx context.Context, lines []any) error {
	return s.insertRows(ctx, s.table, s.entityName, s.columns, lines)
}

// updateQuery rewrites every column except the identity and the parent link.
func (s lineStore) updateQuery(lineID id.ID, line any) squirrel.UpdateBuilder {
	data := postgres.StructToMap(line)
	q := psql.Update(s.table)
	for _, col := range without(s.columns, "id", s.parentCol) {
		q = q.Set(col, data[col])
	}
	return q.Where(squirrel.Eq{"id": lineID})
}

func (s lineStore) update(ctx context.Context, lineID id.ID, line any) error {
	n, err := s.exec(ctx, s.updateQuery(lineID, line))
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, postgres.TranslateError(err, s.entityName))
	}
	if n == 0 {
		return fmt.Errorf("update %s: line %s vanished", s.table, lineID)
	}
	return nil
}

func (s lineStore) softDelete(ctx context.Context, ids []id.ID) error {
	if len(ids) == 0 {
		return nil
	}
	q := psql.Update(s.table).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"id": ids})
	if _, err := s.exec(ctx, q); err != nil {
		return fmt.Errorf("soft delete %s: %w", s.table, err)
	}
	return nil
}
