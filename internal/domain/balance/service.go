package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/types"
	"hesap/pkg/logger"
)

// Service recomputes balances from scratch. Every recalculation is a pure
// function of the current ledger and may be repeated freely.
type Service struct {
	repo Repository
}

// NewService creates a new balance service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecalculateInvoice sets balance = round2(gross - sum of live linked
// payments). It does not open a transaction; the caller owns the boundary.
// The invoice row is locked before the sum, so the sum sees every payment
// committed by a writer that held the lock before us.
func (s *Service) RecalculateInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	gross, err := s.repo.LockInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	paid, err := s.repo.SumInvoicePayments(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum invoice payments: %w", err)
	}

	bal := types.RoundAtScale(gross.Sub(paid), types.ScaleMoney)
	if err := s.repo.SetInvoiceBalance(ctx, invoiceID, bal); err != nil {
		return decimal.Zero, fmt.Errorf("set invoice balance: %w", err)
	}

	logger.Debug(ctx, "invoice balance recalculated", "invoice_id", invoiceID, "balance", types.FormatMoney(bal))
	return bal, nil
}

// RecalculateAccount sets balance = round2(sum In - sum Out) over live
// payments. The account row is locked before the sum.
func (s *Service) RecalculateAccount(ctx context.Context, accountID id.ID) (decimal.Decimal, error) {
	if err := s.repo.LockAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	in, out, err := s.repo.SumAccountPayments(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum account payments: %w", err)
	}

	bal := types.RoundAtScale(in.Sub(out), types.ScaleMoney)
	if err := s.repo.SetAccountBalance(ctx, accountID, bal); err != nil {
		return decimal.Zero, fmt.Errorf("set account balance: %w", err)
	}

	logger.Debug(ctx, "account balance recalculated", "account_id", accountID, "balance", types.FormatMoney(bal))
	return bal, nil
}

// CalculateAsOf is the contact balance over entries dated strictly before cutoff.
func (s *Service) CalculateAsOf(ctx context.Context, sc scope.Scope, contactID id.ID, cutoff time.Time) (decimal.Decimal, error) {
	if err := s.requireContact(ctx, sc, contactID); err != nil {
		return decimal.Zero, err
	}
	before := cutoff.UTC()
	return s.sum(ctx, sc.BranchID, contactID, EntryFilter{Before: &before})
}

// GetCurrentBalance is the contact balance over all live entries.
func (s *Service) GetCurrentBalance(ctx context.Context, sc scope.Scope, contactID id.ID) (decimal.Decimal, error) {
	if err := s.requireContact(ctx, sc, contactID); err != nil {
		return decimal.Zero, err
	}
	return s.sum(ctx, sc.BranchID, contactID, EntryFilter{})
}

// GetTransactions returns the contact's invoices and payments dated within
// [from, to], whole days, in chronological order.
func (s *Service) GetTransactions(ctx context.Context, sc scope.Scope, contactID id.ID, from, to time.Time) ([]Transaction, error) {
	if err := s.requireContact(ctx, sc, contactID); err != nil {
		return nil, err
	}
	start, end, err := dayRange(from, to)
	if err != nil {
		return nil, err
	}
	return s.transactions(ctx, sc.BranchID, contactID, start, end)
}

// Statement renders the opening balance at from followed by every
// transaction up to and including to, with a running balance.
func (s *Service) Statement(ctx context.Context, sc scope.Scope, contactID id.ID, from, to time.Time) (*Statement, error) {
	if err := s.requireContact(ctx, sc, contactID); err != nil {
		return nil, err
	}
	start, end, err := dayRange(from, to)
	if err != nil {
		return nil, err
	}

	opening, err := s.sum(ctx, sc.BranchID, contactID, EntryFilter{Before: &start})
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions(ctx, sc.BranchID, contactID, start, end)
	if err != nil {
		return nil, err
	}

	rows, closing, debit, credit := fold(opening, start, txs)
	return &Statement{
		ContactID:   contactID,
		From:        start,
		To:          end.AddDate(0, 0, -1),
		Opening:     opening,
		TotalDebit:  debit,
		TotalCredit: credit,
		Closing:     closing,
		Rows:        rows,
	}, nil
}

func (s *Service) transactions(ctx context.Context, branchID, contactID id.ID, start, end time.Time) ([]Transaction, error) {
	entries, err := s.repo.ListContactEntries(ctx, branchID, contactID, EntryFilter{From: &start, Before: &end})
	if err != nil {
		return nil, fmt.Errorf("list contact entries: %w", err)
	}
	orderEntries(entries)

	out := make([]Transaction, len(entries))
	for i, e := range entries {
		out[i] = Split(e)
	}
	return out, nil
}

func (s *Service) sum(ctx context.Context, branchID, contactID id.ID, f EntryFilter) (decimal.Decimal, error) {
	entries, err := s.repo.ListContactEntries(ctx, branchID, contactID, f)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list contact entries: %w", err)
	}
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(Effect(e))
	}
	return types.RoundAtScale(total, types.ScaleMoney), nil
}

func (s *Service) requireContact(ctx context.Context, sc scope.Scope, contactID id.ID) error {
	if err := sc.RequireBranch(); err != nil {
		return err
	}
	ok, err := s.repo.ContactExists(ctx, sc.BranchID, contactID)
	if err != nil {
		return fmt.Errorf("check contact: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("contact", contactID)
	}
	return nil
}

// dayRange turns inclusive dates into [start of from, start of the day after to).
func dayRange(from, to time.Time) (time.Time, time.Time, error) {
	start := startOfDay(from)
	end := startOfDay(to).AddDate(0, 0, 1)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperror.NewFieldValidation("to", "must not be before from")
	}
	return start, end, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
