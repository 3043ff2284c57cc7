package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/account"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/invoice"
)

// Repository persists payments. Update is guarded by the expected version;
// a duplicate reference is reported as a Duplicate business rule.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, branchID, paymentID id.ID) (*Payment, error)
	GetForUpdate(ctx context.Context, branchID, paymentID id.ID) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
}

// AccountReader resolves the account a payment moves money through.
type AccountReader interface {
	Get(ctx context.Context, sc scope.Scope, accountID id.ID) (*account.Account, error)
}

// InvoiceReader resolves the invoice a payment settles.
type InvoiceReader interface {
	Get(ctx context.Context, sc scope.Scope, invoiceID id.ID) (*invoice.Invoice, error)
}

// ContactReader resolves the paying or paid contact.
type ContactReader interface {
	GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error)
}

// BalanceRecalculator refreshes derived balances inside the caller's transaction.
type BalanceRecalculator interface {
	RecalculateInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error)
	RecalculateAccount(ctx context.Context, accountID id.ID) (decimal.Decimal, error)
}
