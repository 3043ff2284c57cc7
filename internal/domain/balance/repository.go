package balance

import (
	"context"

	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
)

// Repository reads ledgers and writes derived balances. Writes join the
// transaction carried by ctx and never bump row versions.
type Repository interface {
	// LockInvoice row-locks the live invoice until the transaction ends and
	// returns its total gross. NotFound when the invoice is gone.
	LockInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error)

	// SumInvoicePayments sums live payments linked to an invoice.
	SumInvoicePayments(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error)

	SetInvoiceBalance(ctx context.Context, invoiceID id.ID, balance decimal.Decimal) error

	// LockAccount row-locks the live account until the transaction ends.
	LockAccount(ctx context.Context, accountID id.ID) error

	// SumAccountPayments sums live In and Out payments of an account.
	SumAccountPayments(ctx context.Context, accountID id.ID) (in, out decimal.Decimal, err error)

	SetAccountBalance(ctx context.Context, accountID id.ID, balance decimal.Decimal) error

	ContactExists(ctx context.Context, branchID, contactID id.ID) (bool, error)

	// ListContactEntries returns live invoices and payments of a contact.
	ListContactEntries(ctx context.Context, branchID, contactID id.ID, f EntryFilter) ([]Entry, error)
}
