package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hesap/internal/core/apperror"
	"hesap/internal/core/diff"
	"hesap/internal/core/entity"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/numerator"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/internal/domain/invoice"
	"hesap/pkg/logger"
)

const numberPrefix = "EL"

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Invoices  InvoiceCreator
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    event.Publisher
}

// Service runs the expense list workflow.
type Service struct {
	repo      Repository
	invoices  InvoiceCreator
	numerator numerator.Generator
	txManager tx.Manager
	events    event.Publisher
}

// NewService creates a new expense list service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:      d.Repo,
		invoices:  d.Invoices,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    events,
	}
}

// Create stores a Draft list.
func (s *Service) Create(ctx context.Context, sc scope.Scope, cmd CreateCommand) (*List, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return nil, apperror.NewFieldValidation("title", "is required")
	}
	lines, err := parseLines(cmd.Lines)
	if err != nil {
		return nil, err
	}

	list := &List{
		BaseDocument: entity.NewBaseDocument(sc.BranchID, sc.UserID),
		Title:        title,
		Status:       StatusDraft,
	}
	for i, pl := range lines {
		if pl.input.ID != nil {
			return nil, apperror.NewFieldValidation(fmt.Sprintf("lines[%d].id", i), "must be empty for a new list")
		}
		line := &Line{ID: id.New(), ListID: list.ID, LineNo: i + 1}
		pl.applyTo(line)
		list.Lines = append(list.Lines, line)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := s.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig(numberPrefix, sc.BranchID.String()),
			numerator.DefaultOptions(), list.CreatedAt)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		list.Number = number

		if err := s.repo.Create(ctx, list); err != nil {
			return fmt.Errorf("create expense list: %w", err)
		}
		if len(list.Lines) == 0 {
			return nil
		}
		return s.repo.InsertLines(ctx, list.Lines)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expense list created", "expense_list_id", list.ID, "branch_id", sc.BranchID, "lines", len(list.Lines))
	return list, nil
}

// UpdateLines syncs the lines of a Draft or Reviewed list.
func (s *Service) UpdateLines(ctx context.Context, sc scope.Scope, listID id.ID, rowVersion string, inputs []LineInput) (*List, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return nil, err
	}
	desired, err := parseLines(inputs)
	if err != nil {
		return nil, err
	}

	var list *List
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if list, err = s.loadGuarded(ctx, sc, listID, expected); err != nil {
			return err
		}
		if err := list.requireEditable("edited"); err != nil {
			return err
		}
		existing, err := s.repo.GetLines(ctx, list.ID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}

		plan := diff.Compute(existing, desired,
			func(l *Line) id.ID { return l.ID },
			func(p parsedLine) *id.ID { return p.input.ID })
		if len(plan.Unknown) > 0 {
			return apperror.NewNotFound("expense line", plan.Unknown[0])
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

		list.Lines = make([]*Line, 0, len(plan.Update)+len(plan.Insert))
		for _, p := range plan.Update {
			p.Desired.applyTo(p.Existing)
			if err := s.repo.UpdateLine(ctx, p.Existing); err != nil {
				return fmt.Errorf("update line: %w", err)
			}
			list.Lines = append(list.Lines, p.Existing)
		}

		next := 1
		for _, l := range existing {
			if l.LineNo >= next {
				next = l.LineNo + 1
			}
		}
		var inserted []*Line
		for _, pl := range plan.Insert {
			line := &Line{ID: id.New(), ListID: list.ID, LineNo: next}
			next++
			pl.applyTo(line)
			inserted = append(inserted, line)
		}
		if len(inserted) > 0 {
			if err := s.repo.InsertLines(ctx, inserted); err != nil {
				return fmt.Errorf("insert lines: %w", err)
			}
		}
		list.Lines = append(list.Lines, inserted...)
		list.sortLines()

		list.Touch(sc.UserID)
		if err := s.repo.Update(ctx, list); err != nil {
			return err
		}
		list.Advance()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expense lines updated", "expense_list_id", list.ID, "branch_id", sc.BranchID, "lines", len(list.Lines))
	return list, nil
}

// Review moves a Draft list to Reviewed.
func (s *Service) Review(ctx context.Context, sc scope.Scope, listID id.ID, rowVersion string) (*List, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return nil, err
	}

	var list *List
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if list, err = s.loadGuarded(ctx, sc, listID, expected); err != nil {
			return err
		}
		if list.Status != StatusDraft {
			return apperror.NewInvalidStatus("expense list", string(list.Status), "reviewed")
		}
		list.Status = StatusReviewed
		list.Touch(sc.UserID)
		if err := s.repo.Update(ctx, list); err != nil {
			return err
		}
		list.Advance()
		if list.Lines, err = s.repo.GetLines(ctx, list.ID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		return s.publish(ctx, sc, list, event.ExpenseListReviewed)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expense list reviewed", "expense_list_id", list.ID, "branch_id", sc.BranchID)
	return list, nil
}

// Get loads a list with its live lines.
func (s *Service) Get(ctx context.Context, sc scope.Scope, listID id.ID) (*List, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	list, err := s.repo.GetByID(ctx, sc.BranchID, listID)
	if err != nil {
		return nil, err
	}
	if list.Lines, err = s.repo.GetLines(ctx, list.ID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return list, nil
}

// PostToBill books a Reviewed list as one purchase invoice with a line per
// expense: quantity 1, unit price equal to the expense amount, VAT copied.
// The list becomes Posted and every line is stamped with the invoice id.
func (s *Service) PostToBill(ctx context.Context, sc scope.Scope, cmd PostCommand) (*PostResult, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if id.IsNil(cmd.SupplierID) {
		return nil, apperror.NewFieldValidation("supplierId", "is required")
	}
	if id.IsNil(cmd.ItemID) {
		return nil, apperror.NewFieldValidation("itemId", "is required")
	}
	currency, err := types.ParseCurrency("currency", cmd.Currency)
	if err != nil {
		return nil, err
	}
	var date *time.Time
	if cmd.Date != nil && strings.TrimSpace(*cmd.Date) != "" {
		d, err := types.ParseDate("date", *cmd.Date)
		if err != nil {
			return nil, err
		}
		date = &d
	}

	var result PostResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		list, err := s.repo.GetForUpdate(ctx, sc.BranchID, cmd.ListID)
		if err != nil {
			return err
		}
		if list.Status != StatusReviewed {
			return apperror.NewInvalidStatus("expense list", string(list.Status), "posted")
		}
		if list.Lines, err = s.repo.GetLines(ctx, list.ID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		if err := checkPostable(list.Lines, cmd.SupplierID, currency); err != nil {
			return err
		}

		billDate := latestDate(list.Lines)
		if date != nil {
			billDate = *date
		}
		inv, err := s.invoices.Create(ctx, sc, billCommand(list.Lines, cmd, currency, billDate))
		if err != nil {
			return err
		}

		ids := make([]id.ID, len(list.Lines))
		for i, l := range list.Lines {
			ids[i] = l.ID
			l.InvoiceID = id.Ptr(inv.ID)
		}
		if err := s.repo.StampLines(ctx, ids, inv.ID); err != nil {
			return fmt.Errorf("stamp lines: %w", err)
		}

		now := time.Now().UTC()
		list.Status = StatusPosted
		list.InvoiceID = id.Ptr(inv.ID)
		list.PostedAt = &now
		list.Touch(sc.UserID)
		if err := s.repo.Update(ctx, list); err != nil {
			return err
		}
		list.Advance()

		result = PostResult{InvoiceID: inv.ID, PostedCount: len(list.Lines)}
		return s.publish(ctx, sc, list, event.ExpenseListPosted)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "expense list posted",
		"expense_list_id", cmd.ListID,
		"invoice_id", result.InvoiceID,
		"branch_id", sc.BranchID,
		"posted", result.PostedCount)
	return &result, nil
}

// checkPostable requires at least one line, a single currency equal to the
// requested one and no supplier other than the requested one.
func checkPostable(lines []*Line, supplierID id.ID, currency string) error {
	if len(lines) == 0 {
		return apperror.NewBusinessRule(CodeEmptyList, "expense list has no lines to post")
	}
	for _, l := range lines {
		if l.Currency != currency {
			return apperror.NewBusinessRule(CodeCurrencyMismatch,
				fmt.Sprintf("line %d is in %s, expected %s", l.LineNo, l.Currency, currency)).
				WithDetail("lineNo", l.LineNo)
		}
		if l.SupplierID != nil && *l.SupplierID != supplierID {
			return apperror.NewBusinessRule(CodeSupplierMismatch,
				fmt.Sprintf("line %d has a different supplier; normalize before posting", l.LineNo)).
				WithDetail("lineNo", l.LineNo)
		}
	}
	return nil
}

func billCommand(lines []*Line, cmd PostCommand, currency string, date time.Time) invoice.CreateCommand {
	out := invoice.CreateCommand{
		ContactID: cmd.SupplierID,
		Date:      date.Format(time.RFC3339),
		Currency:  currency,
		Type:      string(invoice.TypePurchase),
		Lines:     make([]invoice.LineInput, len(lines)),
	}
	for i, l := range lines {
		out.Lines[i] = invoice.LineInput{
			ItemID:    id.Ptr(cmd.ItemID),
			Quantity:  "1",
			UnitPrice: types.FormatPrice(types.RoundAtScale(l.Amount, types.ScalePrice)),
			VATRate:   l.VATRate,
		}
	}
	return out
}

func (s *Service) loadGuarded(ctx context.Context, sc scope.Scope, listID id.ID, expected int64) (*List, error) {
	list, err := s.repo.GetForUpdate(ctx, sc.BranchID, listID)
	if err != nil {
		return nil, err
	}
	list.ExpectVersion(expected)
	if err := list.CheckExpected("expense list"); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Service) publish(ctx context.Context, sc scope.Scope, list *List, eventType string) error {
	return s.events.Publish(ctx, event.Event{
		AggregateType: "expense_list",
		AggregateID:   list.ID,
		BranchID:      sc.BranchID,
		Type:          eventType,
		UserID:        sc.UserID,
		Payload: map[string]any{
			"number":    list.Number,
			"status":    list.Status,
			"invoiceId": id.StringPtr(list.InvoiceID),
		},
	})
}
