package payment

import (
	"context"
	"fmt"
	"time"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/pkg/logger"
)

// Deps are the collaborators of Service.
type Deps struct {
	Repo      Repository
	Accounts  AccountReader
	Invoices  InvoiceReader
	Contacts  ContactReader
	Balances  BalanceRecalculator
	TxManager tx.Manager
	Events    event.Publisher
}

// Service records payments and keeps invoice and account balances current.
type Service struct {
	repo      Repository
	accounts  AccountReader
	invoices  InvoiceReader
	contacts  ContactReader
	balances  BalanceRecalculator
	txManager tx.Manager
	events    event.Publisher
	now       func() time.Time
}

// NewService creates a new payment service.
func NewService(d Deps) *Service {
	events := d.Events
	if events == nil {
		events = event.Discard{}
	}
	return &Service{
		repo:      d.Repo,
		accounts:  d.Accounts,
		invoices:  d.Invoices,
		contacts:  d.Contacts,
		balances:  d.Balances,
		txManager: d.TxManager,
		events:    events,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create records a payment and recalculates the linked invoice and the
// account in the same transaction.
func (s *Service) Create(ctx context.Context, sc scope.Scope, cmd CreateCommand) (*Payment, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	f, err := cmd.parse(s.now())
	if err != nil {
		return nil, err
	}

	p := &Payment{BaseDocument: entity.NewBaseDocument(sc.BranchID, sc.UserID)}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, sc, p, f); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		var l links
		l.add(p)
		return s.afterWrite(ctx, sc, p, l, event.PaymentRecorded)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"payment_id", p.ID,
		"branch_id", sc.BranchID,
		"direction", p.Direction,
		"amount", types.FormatMoney(p.Amount))
	return p, nil
}

// Update replaces the payment's fields. Balances of both the previous and the
// new invoice and account are recalculated.
func (s *Service) Update(ctx context.Context, sc scope.Scope, paymentID id.ID, cmd UpdateCommand) (*Payment, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	expected, err := entity.DecodeToken(cmd.RowVersion)
	if err != nil {
		return nil, err
	}
	f, err := cmd.parse(s.now())
	if err != nil {
		return nil, err
	}

	var p *Payment
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.loadGuarded(ctx, sc, paymentID, expected); err != nil {
			return err
		}
		var l links
		l.add(p)

		if err := s.apply(ctx, sc, p, f); err != nil {
			return err
		}
		p.Touch(sc.UserID)
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		p.Advance()

		l.add(p)
		return s.afterWrite(ctx, sc, p, l, event.PaymentRecorded)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment updated", "payment_id", p.ID, "branch_id", sc.BranchID)
	return p, nil
}

// Delete soft-deletes the payment and recalculates what it was linked to.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, paymentID id.ID, rowVersion string) error {
	if err := sc.RequireBranch(); err != nil {
		return err
	}
	expected, err := entity.DecodeToken(rowVersion)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.loadGuarded(ctx, sc, paymentID, expected)
		if err != nil {
			return err
		}
		p.MarkDeleted()
		p.Touch(sc.UserID)
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		p.Advance()

		var l links
		l.add(p)
		return s.afterWrite(ctx, sc, p, l, event.PaymentDeleted)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "payment deleted", "payment_id", paymentID, "branch_id", sc.BranchID)
	return nil
}

// Get loads a payment visible to the caller.
func (s *Service) Get(ctx context.Context, sc scope.Scope, paymentID id.ID) (*Payment, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, sc.BranchID, paymentID)
}

func (s *Service) loadGuarded(ctx context.Context, sc scope.Scope, paymentID id.ID, expected int64) (*Payment, error) {
	p, err := s.repo.GetForUpdate(ctx, sc.BranchID, paymentID)
	if err != nil {
		return nil, err
	}
	p.ExpectVersion(expected)
	if err := p.CheckExpected("payment"); err != nil {
		return nil, err
	}
	return p, nil
}

// apply checks the references against the store and copies the fields.
// The account and the linked invoice must carry the payment's currency; a
// payment on an invoice belongs to the invoice's contact.
func (s *Service) apply(ctx context.Context, sc scope.Scope, p *Payment, f parsedFields) error {
	acc, err := s.accounts.Get(ctx, sc, f.in.AccountID)
	if err != nil {
		return err
	}
	if acc.Currency != f.currency {
		return currencyMismatch("account", acc.Currency, f.currency)
	}

	contactID := f.in.ContactID
	if f.in.InvoiceID != nil {
		inv, err := s.invoices.Get(ctx, sc, *f.in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Currency != f.currency {
			return currencyMismatch("invoice", inv.Currency, f.currency)
		}
		if contactID == nil {
			contactID = id.Ptr(inv.ContactID)
		} else if *contactID != inv.ContactID {
			return apperror.NewBusinessRule(CodeContactMismatch,
				"payment contact differs from the invoice contact").
				WithDetail("invoiceContactId", inv.ContactID.String())
		}
	} else if contactID != nil {
		if _, err := s.contacts.GetContact(ctx, sc, *contactID); err != nil {
			return err
		}
	}

	p.AccountID = acc.ID
	p.ContactID = contactID
	p.InvoiceID = f.in.InvoiceID
	p.Direction = f.direction
	p.Amount = f.amount
	p.Currency = f.currency
	p.Date = f.date
	p.Reference = f.reference
	p.Note = f.in.Note
	return nil
}

func (s *Service) afterWrite(ctx context.Context, sc scope.Scope, p *Payment, l links, eventType string) error {
	l.lockOrder()
	for _, invoiceID := range l.invoices {
		if _, err := s.balances.RecalculateInvoice(ctx, invoiceID); err != nil {
			return fmt.Errorf("recalculate invoice balance: %w", err)
		}
	}
	for _, accountID := range l.accounts {
		if _, err := s.balances.RecalculateAccount(ctx, accountID); err != nil {
			return fmt.Errorf("recalculate account balance: %w", err)
		}
	}
	return s.events.Publish(ctx, event.Event{
		AggregateType: "payment",
		AggregateID:   p.ID,
		BranchID:      sc.BranchID,
		Type:          eventType,
		UserID:        sc.UserID,
		Payload: map[string]any{
			"direction": p.Direction,
			"amount":    types.FormatMoney(p.Amount),
			"currency":  p.Currency,
			"invoiceId": id.StringPtr(p.InvoiceID),
			"deleted":   p.DeletionMark,
		},
	})
}

func currencyMismatch(target, want, got string) *apperror.AppError {
	return apperror.NewBusinessRule(CodeCurrencyMismatch,
		fmt.Sprintf("payment currency %s does not match %s currency %s", got, target, want)).
		WithDetail(target+"Currency", want)
}
