package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/invoice"
	"hesap/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceLinesTable = "invoice_lines"
)

var (
	invoiceColumns     = postgres.ExtractDBColumns[invoice.Invoice]()
	invoiceLineColumns = postgres.ExtractDBColumns[invoice.Line]()

	// the balance column belongs to the balance service
	invoiceUpdateColumns = without(invoiceColumns, "balance")
)

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	base
	lines lineStore
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	b := newBase(txm)
	return &InvoiceRepo{
		base:  b,
		lines: newLineStore(b, invoiceLinesTable, "invoice line", "invoice_id", invoiceLineColumns),
	}
}

// Create implements invoice.Repository.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	return r.insert(ctx, invoicesTable, "invoice", invoiceColumns, inv)
}

// GetByID implements invoice.Repository.
func (r *InvoiceRepo) GetByID(ctx context.Context, branchID, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.load(ctx, branchRowQuery(invoicesTable, invoiceColumns, branchID, invoiceID), invoiceID)
}

// GetForUpdate implements invoice.Repository.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, branchID, invoiceID id.ID) (*invoice.Invoice, error) {
	q := branchRowQuery(invoicesTable, invoiceColumns, branchID, invoiceID).Suffix("FOR UPDATE")
	return r.load(ctx, q, invoiceID)
}

func (r *InvoiceRepo) load(ctx context.Context, q squirrel.SelectBuilder, invoiceID id.ID) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := r.get(ctx, &inv, q); err != nil {
		return nil, postgres.NotFoundOr(err, "invoice", invoiceID)
	}
	return &inv, nil
}

// Update implements invoice.Repository.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	return r.updateVersioned(ctx, invoicesTable, "invoice", invoiceUpdateColumns, inv, &inv.BaseEntity)
}

// GetLines implements invoice.Repository.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]*invoice.Line, error) {
	var lines []*invoice.Line
	if err := r.lines.list(ctx, &lines, invoiceID); err != nil {
		return nil, err
	}
	return lines, nil
}

// InsertLines implements invoice.Repository.
func (r *InvoiceRepo) InsertLines(ctx context.Context, lines []*invoice.Line) error {
	rows := make([]any, len(lines))
	for i, l := range lines {
		rows[i] = l
	}
	return r.lines.insert(ctx, rows)
}

// UpdateLine implements invoice.Repository.
func (r *InvoiceRepo) UpdateLine(ctx context.Context, line *invoice.Line) error {
	return r.lines.update(ctx, line.ID, line)
}

// SoftDeleteLines implements invoice.Repository.
func (r *InvoiceRepo) SoftDeleteLines(ctx context.Context, ids []id.ID) error {
	return r.lines.softDelete(ctx, ids)
}

// HasLivePayments implements invoice.Repository.
func (r *InvoiceRepo) HasLivePayments(ctx context.Context, invoiceID id.ID) (bool, error) {
	var exists bool
	sql, args, err := hasLivePaymentsQuery(invoiceID).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check payments: %w", err)
	}
	return exists, nil
}

func hasLivePaymentsQuery(invoiceID id.ID) squirrel.SelectBuilder {
	sub := psql.Select("1").
		From(paymentsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(live)
	return psql.Select().Column(squirrel.Expr("EXISTS (?)", sub))
}
