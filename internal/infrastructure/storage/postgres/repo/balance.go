package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
	"hesap/internal/domain/balance"
	"hesap/internal/infrastructure/storage/postgres"
)

// BalanceRepo implements balance.Repository over the invoice, payment and
// account tables. Balance writes leave row versions alone.
type BalanceRepo struct {
	base
}

var _ balance.Repository = (*BalanceRepo)(nil)

// NewBalanceRepo creates a new balance repository.
func NewBalanceRepo(txm *postgres.TxManager) *BalanceRepo {
	return &BalanceRepo{base: newBase(txm)}
}

// scanDecimal runs a single-value query.
func (r *BalanceRepo) scanDecimal(ctx context.Context, q squirrel.Sqlizer) (decimal.Decimal, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("build query: %w", err)
	}
	var d decimal.Decimal
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// LockInvoice implements balance.Repository.
func (r *BalanceRepo) LockInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	d, err := r.scanDecimal(ctx, lockInvoiceQuery(invoiceID))
	if err != nil {
		return decimal.Zero, postgres.NotFoundOr(err, "invoice", invoiceID)
	}
	return d, nil
}

// lockInvoiceQuery re-checks deletion_mark after waiting for the lock, so an
// invoice deleted by the lock holder is reported as missing.
func lockInvoiceQuery(invoiceID id.ID) squirrel.SelectBuilder {
	return psql.Select("total_gross").
		From(invoicesTable).
		Where(squirrel.Eq{"id": invoiceID}).
		Where(live).
		Suffix("FOR UPDATE")
}

// LockAccount implements balance.Repository.
func (r *BalanceRepo) LockAccount(ctx context.Context, accountID id.ID) error {
	sql, args, err := lockAccountQuery(accountID).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	var locked id.ID
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		return postgres.NotFoundOr(err, "account", accountID)
	}
	return nil
}

func lockAccountQuery(accountID id.ID) squirrel.SelectBuilder {
	return psql.Select("id").
		From(accountsTable).
		Where(squirrel.Eq{"id": accountID}).
		Where(live).
		Suffix("FOR UPDATE")
}

// SumInvoicePayments implements balance.Repository.
func (r *BalanceRepo) SumInvoicePayments(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	d, err := r.scanDecimal(ctx, sumInvoicePaymentsQuery(invoiceID))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum invoice payments: %w", err)
	}
	return d, nil
}

func sumInvoicePaymentsQuery(invoiceID id.ID) squirrel.SelectBuilder {
	return psql.Select("COALESCE(SUM(amount), 0)").
		From(paymentsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		Where(live)
}

// SetInvoiceBalance implements balance.Repository.
func (r *BalanceRepo) SetInvoiceBalance(ctx context.Context, invoiceID id.ID, bal decimal.Decimal) error {
	q := psql.Update(invoicesTable).Set("balance", bal).Where(squirrel.Eq{"id": invoiceID})
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("set invoice balance: %w", err)
	}
	return nil
}

// SumAccountPayments implements balance.Repository.
func (r *BalanceRepo) SumAccountPayments(ctx context.Context, accountID id.ID) (in, out decimal.Decimal, err error) {
	sql, args, err := sumAccountPaymentsQuery(accountID).ToSql()
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("build query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&in, &out); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sum account payments: %w", err)
	}
	return in, out, nil
}

func sumAccountPaymentsQuery(accountID id.ID) squirrel.SelectBuilder {
	return psql.Select(
		"COALESCE(SUM(amount) FILTER (WHERE direction = 'In'), 0)",
		"COALESCE(SUM(amount) FILTER (WHERE direction = 'Out'), 0)",
	).
		From(paymentsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		Where(live)
}

// SetAccountBalance implements balance.Repository.
func (r *BalanceRepo) SetAccountBalance(ctx context.Context, accountID id.ID, bal decimal.Decimal) error {
	q := psql.Update(accountsTable).Set("balance", bal).Where(squirrel.Eq{"id": accountID})
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("set account balance: %w", err)
	}
	return nil
}

// ContactExists implements balance.Repository.
func (r *BalanceRepo) ContactExists(ctx context.Context, branchID, contactID id.ID) (bool, error) {
	sub := psql.Select("1").
		From(contactsTable).
		Where(squirrel.Eq{"id": contactID, "branch_id": branchID}).
		Where(live)
	sql, args, err := psql.Select().Column(squirrel.Expr("EXISTS (?)", sub)).ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	var exists bool
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check contact: %w", err)
	}
	return exists, nil
}

// ListContactEntries implements balance.Repository.
func (r *BalanceRepo) ListContactEntries(ctx context.Context, branchID, contactID id.ID, f balance.EntryFilter) ([]balance.Entry, error) {
	var entries []balance.Entry
	if err := r.list(ctx, &entries, contactEntriesQuery(branchID, contactID, f)); err != nil {
		return nil, fmt.Errorf("list contact entries: %w", err)
	}
	return entries, nil
}

// contactEntriesQuery unions the live invoices and payments of a contact.
// The payments half keeps ? placeholders so the outer statement numbers the
// arguments of both halves in one sequence.
func contactEntriesQuery(branchID, contactID id.ID, f balance.EntryFilter) squirrel.SelectBuilder {
	invoices := psql.Select(
		"'invoice' AS source", "id AS document_id", "number AS reference",
		"invoice_date AS doc_date", "created_at", "invoice_type AS doc_type", "total_gross AS amount",
	).
		From(invoicesTable).
		Where(squirrel.Eq{"branch_id": branchID, "contact_id": contactID}).
		Where(live)
	invoices = withDateRange(invoices, "invoice_date", f)

	payments := squirrel.Select(
		"'payment' AS source", "id AS document_id", "COALESCE(reference, '') AS reference",
		"payment_date AS doc_date", "created_at", "direction AS doc_type", "amount",
	).
		From(paymentsTable).
		Where(squirrel.Eq{"branch_id": branchID, "contact_id": contactID}).
		Where(live)
	payments = withDateRange(payments, "payment_date", f)

	return invoices.SuffixExpr(squirrel.Expr("UNION ALL ?", payments))
}

func withDateRange(q squirrel.SelectBuilder, col string, f balance.EntryFilter) squirrel.SelectBuilder {
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{col: *f.From})
	}
	if f.Before != nil {
		q = q.Where(squirrel.Lt{col: *f.Before})
	}
	return q
}
