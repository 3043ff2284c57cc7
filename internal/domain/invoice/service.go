package invoice

import (
	"context"
	"fmt"

	"hesap/internal/core/apperror"
	"hesap/internal/core/diff"
	"hesap/internal/core/entity"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/numerator"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
	"hesap/pkg/logger"
)

// Service is the invoice aggregate engine.
type Service struct {
	repo      Repository
	catalog   CatalogReader
	stock     StockSync
	balances  BalanceRecalculator
	numerator numerator.Generator
	txManager tx.Manager
	events    event.Publisher
}

// Deps groups the collaborators of the invoice engine.
type Deps struct {
	Repo      Repository
	Catalog   CatalogReader
	Stock     StockSync
	Balances  BalanceRecalculator
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    event.Publisher
}

// NewService creates a new invoice service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:      d.Repo,
		catalog:   d.Catalog,
		stock:     d.Stock,
		balances:  d.Balances,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    events,
	}
}

// Create validates the command, captures catalog snapshots and writes the
// header, lines, stock movements and balance in one transaction.
func (s *Service) Create(ctx context.Context, sc scope.Scope, cmd CreateCommand) (*Invoice, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	h, err := parseHeader(cmd.Date, cmd.Currency, cmd.Type)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(cmd.Lines)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		if l.input.ID != nil {
			return nil, apperror.NewFieldValidation(fmt.Sprintf("lines[%d].id", i), "must be empty for a new invoice")
		}
	}
	if err := checkPairing(h.typ, lines); err != nil {
		return nil, err
	}

	inv := &Invoice{
		BaseDocument: entity.NewBaseDocument(sc.BranchID, sc.UserID),
		ContactID:    cmd.ContactID,
		Type:         h.typ,
		Date:         h.date,
		Currency:     h.currency,
		OrderID:      cmd.OrderID,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetContact(ctx, sc, cmd.ContactID); err != nil {
			return err
		}
		for i, pl := range lines {
			line, err := s.newLine(ctx, sc, inv, pl, i+1)
			if err != nil {
				return err
			}
			inv.Lines = append(inv.Lines, line)
		}
		inv.RecalculateTotals()
		inv.Balance = inv.TotalGross

		number, err := s.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig(h.typ.NumberPrefix(), sc.BranchID.String()),
			numerator.DefaultOptions(), inv.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number

		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.InsertLines(ctx, inv.Lines); err != nil {
			return fmt.Errorf("insert lines: %w", err)
		}
		return s.afterWrite(ctx, sc, inv, event.InvoiceCreated)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID,
		"branch_id", sc.BranchID,
		"number", inv.Number,
		"total_gross", types.FormatMoney(inv.TotalGross))

	return inv, nil
}

// UpdateHeader edits contact, date and currency under the row version guard.
// The type is fixed at creation.
func (s *Service) UpdateHeader(ctx context.Context, sc scope.Scope, invoiceID id.ID, cmd UpdateHeaderCommand) (*Invoice, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(cmd.RowVersion)
	if err != nil {
		return nil, err
	}
	h, err := parseHeader(cmd.Date, cmd.Currency, cmd.Type)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.loadGuarded(ctx, sc, invoiceID, expected); err != nil {
			return err
		}
		if h.typ != inv.Type {
			return apperror.NewBusinessRule(CodeTypeImmutable,
				"invoice type cannot change; delete the invoice and create a new one").
				WithDetail("type", string(inv.Type))
		}
		if h.currency != inv.Currency {
			paid, err := s.repo.HasLivePayments(ctx, inv.ID)
			if err != nil {
				return fmt.Errorf("check payments: %w", err)
			}
			if paid {
				return apperror.NewBusinessRule(CodeCurrencyLocked,
					"currency cannot change while payments are linked")
			}
		}
		if cmd.ContactID != inv.ContactID {
			if _, err := s.catalog.GetContact(ctx, sc, cmd.ContactID); err != nil {
				return err
			}
		}

		inv.ContactID = cmd.ContactID
		inv.Date = h.date
		inv.Currency = h.currency
		inv.Touch(sc.UserID)
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		inv.Advance()

		if inv.Lines, err = s.repo.GetLines(ctx, inv.ID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		return s.afterWrite(ctx, sc, inv, event.InvoiceUpdated)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice header updated", "invoice_id", inv.ID, "branch_id", sc.BranchID)
	return inv, nil
}

// UpdateLines reconciles the live lines with the desired set: lines missing
// from it are soft-deleted, lines with a matching id are updated in place and
// lines without id are inserted. Totals, stock and balance follow in the
// same transaction.
func (s *Service) UpdateLines(ctx context.Context, sc scope.Scope, invoiceID id.ID, cmd UpdateLinesCommand) (*Invoice, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(cmd.RowVersion)
	if err != nil {
		return nil, err
	}
	desired, err := parseLines(cmd.Lines)
	if err != nil {
		return nil, err
	}

	var inv *Invoice
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.loadGuarded(ctx, sc, invoiceID, expected); err != nil {
			return err
		}
		if err := checkPairing(inv.Type, desired); err != nil {
			return err
		}
		existing, err := s.repo.GetLines(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		plan := diff.Compute(existing, desired, lineID, parsedLineID)
		if len(plan.Unknown) > 0 {
			return apperror.NewNotFound("invoice line", plan.Unknown[0])
		}

		if len(plan.Delete) > 0 {
			ids := make([]id.ID, len(plan.Delete))
			for i, l := range plan.Delete {
				ids[i] = l.ID
			}
			if err := s.repo.SoftDeleteLines(ctx, ids); err != nil {
				return fmt.Errorf("delete lines: %w", err)
			}
		}

		inv.Lines = make([]*Line, 0, len(plan.Update)+len(plan.Insert))
		for _, p := range plan.Update {
			if err := s.applyLine(ctx, sc, p.Existing, p.Desired); err != nil {
				return err
			}
			if err := s.repo.UpdateLine(ctx, p.Existing); err != nil {
				return fmt.Errorf("update line: %w", err)
			}
			inv.Lines = append(inv.Lines, p.Existing)
		}

		next := maxLineNo(existing) + 1
		var inserted []*Line
		for _, pl := range plan.Insert {
			line, err := s.newLine(ctx, sc, inv, pl, next)
			if err != nil {
				return err
			}
			next++
			inserted = append(inserted, line)
		}
		if len(inserted) > 0 {
			if err := s.repo.InsertLines(ctx, inserted); err != nil {
				return fmt.Errorf("insert lines: %w", err)
			}
		}
		inv.Lines = append(inv.Lines, inserted...)
		inv.sortLines()

		inv.RecalculateTotals()
		inv.Touch(sc.UserID)
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		inv.Advance()

		return s.afterWrite(ctx, sc, inv, event.InvoiceUpdated)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice lines updated",
		"invoice_id", inv.ID,
		"branch_id", sc.BranchID,
		"lines", len(inv.Lines),
		"total_gross", types.FormatMoney(inv.TotalGross))

	return inv, nil
}

// Delete soft-deletes the invoice and removes its stock movements. Invoices
// with live payments cannot be deleted.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, invoiceID id.ID, rowVersion string) error {
	if err := sc.RequireBranch(); err != nil {
		return err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.loadGuarded(ctx, sc, invoiceID, expected)
		if err != nil {
			return err
		}
		paid, err := s.repo.HasLivePayments(ctx, inv.ID)
		if err != nil {
			return fmt.Errorf("check payments: %w", err)
		}
		if paid {
			return apperror.NewBusinessRule(CodeHasPayments,
				"invoice has payments; delete or relink them first")
		}

		inv.MarkDeleted()
		inv.Touch(sc.UserID)
		if err := s.repo.Update(ctx, inv); err != nil {
			return err
		}
		inv.Advance()

		if err := s.stock.ResyncForInvoice(ctx, inv.StockDocument(sc.UserID)); err != nil {
			return err
		}
		return s.publish(ctx, sc, inv, event.InvoiceDeleted)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice deleted", "invoice_id", invoiceID, "branch_id", sc.BranchID)
	return nil
}

// Get loads an invoice with its live lines.
func (s *Service) Get(ctx context.Context, sc scope.Scope, invoiceID id.ID) (*Invoice, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	inv, err := s.repo.GetByID(ctx, sc.BranchID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Lines, err = s.repo.GetLines(ctx, inv.ID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return inv, nil
}

// loadGuarded locks the header and records the caller's row version.
func (s *Service) loadGuarded(ctx context.Context, sc scope.Scope, invoiceID id.ID, expected int64) (*Invoice, error) {
	inv, err := s.repo.GetForUpdate(ctx, sc.BranchID, invoiceID)
	if err != nil {
		return nil, err
	}
	inv.ExpectVersion(expected)
	if err := inv.CheckExpected("invoice"); err != nil {
		return nil, err
	}
	return inv, nil
}

// afterWrite runs the dependent steps of every invoice write: stock resync,
// balance recalculation and the outbox event.
func (s *Service) afterWrite(ctx context.Context, sc scope.Scope, inv *Invoice, eventType string) error {
	if err := s.stock.ResyncForInvoice(ctx, inv.StockDocument(sc.UserID)); err != nil {
		return err
	}
	bal, err := s.balances.RecalculateInvoice(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("recalculate balance: %w", err)
	}
	inv.Balance = bal
	return s.publish(ctx, sc, inv, eventType)
}

func (s *Service) publish(ctx context.Context, sc scope.Scope, inv *Invoice, eventType string) error {
	return s.events.Publish(ctx, event.Event{
		AggregateType: "invoice",
		AggregateID:   inv.ID,
		BranchID:      sc.BranchID,
		Type:          eventType,
		UserID:        sc.UserID,
		Payload: map[string]any{
			"number":     inv.Number,
			"type":       inv.Type,
			"totalGross": types.FormatMoney(inv.TotalGross),
			"version":    inv.Version,
		},
	})
}

// newLine builds a line with a fresh catalog snapshot.
func (s *Service) newLine(ctx context.Context, sc scope.Scope, inv *Invoice, pl parsedLine, lineNo int) (*Line, error) {
	line := &Line{
		ID:        id.New(),
		InvoiceID: inv.ID,
		LineNo:    lineNo,
	}
	if err := s.setReference(ctx, sc, line, pl.input); err != nil {
		return nil, err
	}
	line.Quantity = pl.quantity
	line.UnitPrice = pl.unitPrice
	line.VATRate = pl.input.VATRate
	line.Recompute()
	return line, nil
}

// applyLine updates an existing line. The snapshot is refreshed only when
// the referenced item or expense definition changed; amounts are always
// re-derived.
func (s *Service) applyLine(ctx context.Context, sc scope.Scope, line *Line, pl parsedLine) error {
	if !id.EqualPtr(line.ItemID, pl.input.ItemID) || !id.EqualPtr(line.ExpenseDefinitionID, pl.input.ExpenseDefinitionID) {
		if err := s.setReference(ctx, sc, line, pl.input); err != nil {
			return err
		}
	}
	line.Quantity = pl.quantity
	line.UnitPrice = pl.unitPrice
	line.VATRate = pl.input.VATRate
	line.Recompute()
	return nil
}

// setReference points the line at its catalog row and captures its labels.
func (s *Service) setReference(ctx context.Context, sc scope.Scope, line *Line, in LineInput) error {
	var snap catalog.Snapshot
	line.ItemID, line.ExpenseDefinitionID, line.StockTracked = nil, nil, false

	switch {
	case in.ItemID != nil:
		item, err := s.catalog.GetItem(ctx, sc, *in.ItemID)
		if err != nil {
			return err
		}
		snap = item.Snapshot()
		line.ItemID = id.Ptr(item.ID)
		line.StockTracked = item.StockTracked
	case in.ExpenseDefinitionID != nil:
		def, err := s.catalog.GetExpenseDefinition(ctx, sc, *in.ExpenseDefinitionID)
		if err != nil {
			return err
		}
		snap = def.Snapshot()
		line.ExpenseDefinitionID = id.Ptr(def.ID)
	}
	if in.Snapshot != nil {
		snap = *in.Snapshot
	}
	line.Code, line.Name, line.Unit = snap.Code, snap.Name, snap.Unit
	return nil
}

func maxLineNo(lines []*Line) int {
	n := 0
	for _, l := range lines {
		if l.LineNo > n {
			n = l.LineNo
		}
	}
	return n
}
