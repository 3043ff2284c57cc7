package order

import (
	"context"
	"fmt"
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
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/invoice"
	"hesap/pkg/logger"
)

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Catalog   CatalogReader
	Invoices  InvoiceCreator
	Numerator numerator.Generator
	TxManager tx.Manager
	Events    event.Publisher
}

// Service runs the order lifecycle.
type Service struct {
	repo      Repository
	catalog   CatalogReader
	invoices  InvoiceCreator
	numerator numerator.Generator
	txManager tx.Manager
	events    event.Publisher
}

// NewService creates a new order service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:      d.Repo,
		catalog:   d.Catalog,
		invoices:  d.Invoices,
		numerator: d.Numerator,
		txManager: d.TxManager,
		events:    events,
	}
}

// Create stores a Draft order numbered per branch and type.
func (s *Service) Create(ctx context.Context, sc scope.Scope, cmd CreateCommand) (*Order, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	typ := Type(cmd.Type)
	if !typ.IsValid() {
		return nil, apperror.NewFieldValidation("type", "must be Sales or Purchase").WithDetail("value", cmd.Type)
	}
	h, err := parseHeader(cmd.ContactID, cmd.Date, cmd.Currency)
	if err != nil {
		return nil, err
	}
	lines, err := parseLines(cmd.Lines)
	if err != nil {
		return nil, err
	}
	for i, l := range lines {
		if l.input.ID != nil {
			return nil, apperror.NewFieldValidation(fmt.Sprintf("lines[%d].id", i), "must be empty for a new order")
		}
	}

	o := &Order{
		BaseDocument: entity.NewBaseDocument(sc.BranchID, sc.UserID),
		Type:         typ,
		ContactID:    cmd.ContactID,
		Date:         h.date,
		Currency:     h.currency,
		Status:       StatusDraft,
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.catalog.GetContact(ctx, sc, cmd.ContactID); err != nil {
			return err
		}
		for i, pl := range lines {
			line, err := s.newLine(ctx, sc, o.ID, pl, i+1)
			if err != nil {
				return err
			}
			o.Lines = append(o.Lines, line)
		}
		o.RecalculateTotals()

		number, err := s.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig(typ.NumberPrefix(), sc.BranchID.String()),
			numerator.DefaultOptions(), o.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		o.Number = number

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if len(o.Lines) > 0 {
			if err := s.repo.InsertLines(ctx, o.Lines); err != nil {
				return fmt.Errorf("insert lines: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order created", "order_id", o.ID, "branch_id", sc.BranchID, "number", o.Number)
	return o, nil
}

// Update edits a Draft order and syncs its lines.
func (s *Service) Update(ctx context.Context, sc scope.Scope, orderID id.ID, cmd UpdateCommand) (*Order, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(cmd.RowVersion)
	if err != nil {
		return nil, err
	}
	h, err := parseHeader(cmd.ContactID, cmd.Date, cmd.Currency)
	if err != nil {
		return nil, err
	}
	desired, err := parseLines(cmd.Lines)
	if err != nil {
		return nil, err
	}

	var o *Order
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.loadGuarded(ctx, sc, orderID, expected); err != nil {
			return err
		}
		if err := o.requireDraft("updated"); err != nil {
			return err
		}
		if cmd.ContactID != o.ContactID {
			if _, err := s.catalog.GetContact(ctx, sc, cmd.ContactID); err != nil {
				return err
			}
		}
		if err := s.syncLines(ctx, sc, o, desired); err != nil {
			return err
		}

		o.ContactID = cmd.ContactID
		o.Date = h.date
		o.Currency = h.currency
		o.RecalculateTotals()
		o.Touch(sc.UserID)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		o.Advance()
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order updated", "order_id", o.ID, "branch_id", sc.BranchID)
	return o, nil
}

// Delete soft-deletes a Draft order.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) error {
	if err := sc.RequireBranch(); err != nil {
		return err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.loadGuarded(ctx, sc, orderID, expected)
		if err != nil {
			return err
		}
		if err := o.requireDraft("deleted"); err != nil {
			return err
		}
		o.MarkDeleted()
		o.Touch(sc.UserID)
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order deleted", "order_id", orderID, "branch_id", sc.BranchID)
	return nil
}

// Approve moves a Draft order to Approved.
func (s *Service) Approve(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) (*Order, error) {
	return s.changeStatus(ctx, sc, orderID, rowVersion, StatusApproved, "approved", event.OrderApproved)
}

// Cancel moves a Draft or Approved order to Cancelled.
func (s *Service) Cancel(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) (*Order, error) {
	return s.changeStatus(ctx, sc, orderID, rowVersion, StatusCancelled, "cancelled", "")
}

// Get loads an order with its live lines.
func (s *Service) Get(ctx context.Context, sc scope.Scope, orderID id.ID) (*Order, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	o, err := s.repo.GetByID(ctx, sc.BranchID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Lines, err = s.repo.GetLines(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return o, nil
}

// CreateInvoiceFromOrder converts an Approved order into an invoice whose
// lines copy the order lines' captured labels, quantities, prices and VAT
// rates. The invoice engine re-derives amounts and writes stock movements.
// The invoice, the status flip and the movements commit together, so a
// failure leaves the order Approved.
func (s *Service) CreateInvoiceFromOrder(ctx context.Context, sc scope.Scope, orderID id.ID) (id.ID, error) {
	if err := sc.RequireBranch(); err != nil {
		return id.Nil(), err
	}

	var invoiceID id.ID
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, sc.BranchID, orderID)
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, StatusInvoiced) {
			return apperror.NewInvalidStatus("order", string(o.Status), "invoiced")
		}
		if o.Lines, err = s.repo.GetLines(ctx, o.ID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		cmd, err := invoiceCommand(o)
		if err != nil {
			return err
		}

		inv, err := s.invoices.Create(ctx, sc, cmd)
		if err != nil {
			return err
		}
		invoiceID = inv.ID

		if err := o.transition(StatusInvoiced, "invoiced"); err != nil {
			return err
		}
		o.InvoiceID = id.Ptr(inv.ID)
		o.Touch(sc.UserID)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		o.Advance()

		return s.publish(ctx, sc, o, event.OrderInvoiced)
	})
	if err != nil {
		return id.Nil(), err
	}

	logger.Info(ctx, "order invoiced", "order_id", orderID, "invoice_id", invoiceID, "branch_id", sc.BranchID)
	return invoiceID, nil
}

// invoiceCommand copies the order into an invoice create command.
func invoiceCommand(o *Order) (invoice.CreateCommand, error) {
	if len(o.Lines) == 0 {
		return invoice.CreateCommand{}, apperror.NewBusinessRule(CodeEmptyOrder, "order has no lines to invoice")
	}
	cmd := invoice.CreateCommand{
		ContactID: o.ContactID,
		Date:      o.Date.Format(time.RFC3339),
		Currency:  o.Currency,
		Type:      string(o.Type.InvoiceType()),
		OrderID:   id.Ptr(o.ID),
		Lines:     make([]invoice.LineInput, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		if l.ItemID == nil {
			return invoice.CreateCommand{}, apperror.NewBusinessRule(CodeLineWithoutItem,
				"every order line needs an item before invoicing").
				WithDetail("lineNo", l.LineNo)
		}
		cmd.Lines = append(cmd.Lines, invoice.LineInput{
			ItemID:    id.Ptr(*l.ItemID),
			Quantity:  types.FormatQuantity(l.Quantity),
			UnitPrice: types.FormatPrice(l.UnitPrice),
			VATRate:   l.VATRate,
			Snapshot:  &catalog.Snapshot{Code: l.Code, Name: l.Name, Unit: l.Unit},
		})
	}
	return cmd, nil
}

func (s *Service) changeStatus(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string, to Status, operation, eventType string) (*Order, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return nil, err
	}

	var o *Order
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.loadGuarded(ctx, sc, orderID, expected); err != nil {
			return err
		}
		if err := o.transition(to, operation); err != nil {
			return err
		}
		o.Touch(sc.UserID)
		if err := s.repo.Update(ctx, o); err != nil {
			return err
		}
		o.Advance()
		if o.Lines, err = s.repo.GetLines(ctx, o.ID); err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		if eventType == "" {
			return nil
		}
		return s.publish(ctx, sc, o, eventType)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order status changed", "order_id", o.ID, "branch_id", sc.BranchID, "status", o.Status)
	return o, nil
}

func (s *Service) loadGuarded(ctx context.Context, sc scope.Scope, orderID id.ID, expected int64) (*Order, error) {
	o, err := s.repo.GetForUpdate(ctx, sc.BranchID, orderID)
	if err != nil {
		return nil, err
	}
	o.ExpectVersion(expected)
	if err := o.CheckExpected("order"); err != nil {
		return nil, err
	}
	return o, nil
}

// syncLines applies the three-way diff of live lines against desired.
func (s *Service) syncLines(ctx context.Context, sc scope.Scope, o *Order, desired []parsedLine) error {
	existing, err := s.repo.GetLines(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	plan := diff.Compute(existing,
		desired,
		func(l *Line) id.ID { return l.ID },
		func(p parsedLine) *id.ID { return p.input.ID })
	if len(plan.Unknown) > 0 {
		return apperror.NewNotFound("order line", plan.Unknown[0])
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

	o.Lines = make([]*Line, 0, len(plan.Update)+len(plan.Insert))
	for _, p := range plan.Update {
		if !id.EqualPtr(p.Existing.ItemID, p.Desired.input.ItemID) || p.Existing.ItemID == nil {
			if err := s.setReference(ctx, sc, p.Existing, p.Desired.input); err != nil {
				return err
			}
		}
		p.Existing.Quantity = p.Desired.quantity
		p.Existing.UnitPrice = p.Desired.unitPrice
		p.Existing.VATRate = p.Desired.input.VATRate
		p.Existing.Recompute()
		if err := s.repo.UpdateLine(ctx, p.Existing); err != nil {
			return fmt.Errorf("update line: %w", err)
		}
		o.Lines = append(o.Lines, p.Existing)
	}

	next := 1
	for _, l := range existing {
		if l.LineNo >= next {
			next = l.LineNo + 1
		}
	}
	var inserted []*Line
	for _, pl := range plan.Insert {
		line, err := s.newLine(ctx, sc, o.ID, pl, next)
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
	o.Lines = append(o.Lines, inserted...)
	o.sortLines()
	return nil
}

func (s *Service) newLine(ctx context.Context, sc scope.Scope, orderID id.ID, pl parsedLine, lineNo int) (*Line, error) {
	line := &Line{ID: id.New(), OrderID: orderID, LineNo: lineNo}
	if err := s.setReference(ctx, sc, line, pl.input); err != nil {
		return nil, err
	}
	line.Quantity = pl.quantity
	line.UnitPrice = pl.unitPrice
	line.VATRate = pl.input.VATRate
	line.Recompute()
	return line, nil
}

// setReference captures the item's labels, or the free-text name for lines
// without an item.
func (s *Service) setReference(ctx context.Context, sc scope.Scope, line *Line, in LineInput) error {
	if in.ItemID == nil {
		line.ItemID = nil
		line.Code, line.Name, line.Unit = "", in.Name, ""
		return nil
	}
	item, err := s.catalog.GetItem(ctx, sc, *in.ItemID)
	if err != nil {
		return err
	}
	snap := item.Snapshot()
	line.ItemID = id.Ptr(item.ID)
	line.Code, line.Name, line.Unit = snap.Code, snap.Name, snap.Unit
	return nil
}

func (s *Service) publish(ctx context.Context, sc scope.Scope, o *Order, eventType string) error {
	return s.events.Publish(ctx, event.Event{
		AggregateType: "order",
		AggregateID:   o.ID,
		BranchID:      sc.BranchID,
		Type:          eventType,
		UserID:        sc.UserID,
		Payload: map[string]any{
			"number":    o.Number,
			"status":    o.Status,
			"invoiceId": id.StringPtr(o.InvoiceID),
		},
	})
}
