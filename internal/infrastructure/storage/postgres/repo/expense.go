package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/expense"
	"hesap/internal/infrastructure/storage/postgres"
)

const (
	expenseListsTable = "expense_lists"
	expenseLinesTable = "expense_lines"
)

var (
	expenseListColumns = postgres.ExtractDBColumns[expense.List]()
	expenseLineColumns = postgres.ExtractDBColumns[expense.Line]()
)

// ExpenseRepo implements expense.Repository.
type ExpenseRepo struct {
	base
	lines lineStore
}

var _ expense.Repository = (*ExpenseRepo)(nil)

// NewExpenseRepo creates a new expense list repository.
func NewExpenseRepo(txm *postgres.TxManager) *ExpenseRepo {
	b := newBase(txm)
	return &ExpenseRepo{
		base:  b,
		lines: newLineStore(b, expenseLinesTable, "expense line", "expense_list_id", expenseLineColumns),
	}
}

// Create implements expense.Repository.
func (r *ExpenseRepo) Create(ctx context.Context, l *expense.List) error {
	return r.insert(ctx, expenseListsTable, "expense list", expenseListColumns, l)
}

// GetByID implements expense.Repository.
func (r *ExpenseRepo) GetByID(ctx context.Context, branchID, listID id.ID) (*expense.List, error) {
	return r.load(ctx, branchRowQuery(expenseListsTable, expenseListColumns, branchID, listID), listID)
}

// GetForUpdate implements expense.Repository.
func (r *ExpenseRepo) GetForUpdate(ctx context.Context, branchID, listID id.ID) (*expense.List, error) {
	q := branchRowQuery(expenseListsTable, expenseListColumns, branchID, listID).Suffix("FOR UPDATE")
	return r.load(ctx, q, listID)
}

func (r *ExpenseRepo) load(ctx context.Context, q squirrel.SelectBuilder, listID id.ID) (*expense.List, error) {
	var l expense.List
	if err := r.get(ctx, &l, q); err != nil {
		return nil, postgres.NotFoundOr(err, "expense list", listID)
	}
	return &l, nil
}

// Update implements expense.Repository.
func (r *ExpenseRepo) Update(ctx context.Context, l *expense.List) error {
	return r.updateVersioned(ctx, expenseListsTable, "expense list", expenseListColumns, l, &l.BaseEntity)
}

// GetLines implements expense.Repository.
func (r *ExpenseRepo) GetLines(ctx context.Context, listID id.ID) ([]*expense.Line, error) {
	var lines []*expense.Line
	if err := r.lines.list(ctx, &lines, listID); err != nil {
		return nil, err
	}
	return lines, nil
}

// InsertLines implements expense.Repository.
func (r *ExpenseRepo) InsertLines(ctx context.Context, lines []*expense.Line) error {
	rows := make([]any, len(lines))
	for i, l := range lines {
		rows[i] = l
	}
	return r.lines.insert(ctx, rows)
}

// UpdateLine implements expense.Repository.
func (r *ExpenseRepo) UpdateLine(ctx context.Context, line *expense.Line) error {
	return r.lines.update(ctx, line.ID, line)
}

// SoftDeleteLines implements expense.Repository.
func (r *ExpenseRepo) SoftDeleteLines(ctx context.Context, ids []id.ID) error {
	return r.lines.softDelete(ctx, ids)
}

// stampLinesQuery links live lines to the bill they were posted on.
func stampLinesQuery(ids []id.ID, invoiceID id.ID) squirrel.UpdateBuilder {
	return psql.Update(expenseLinesTable).
		Set("invoice_id", invoiceID).
		Where(squirrel.Eq{"id": ids}).
		Where(live)
}

// StampLines implements expense.Repository.
func (r *ExpenseRepo) StampLines(ctx context.Context, ids []id.ID, invoiceID id.ID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.exec(ctx, stampLinesQuery(ids, invoiceID)); err != nil {
		return fmt.Errorf("stamp expense lines: %w", err)
	}
	return nil
}
