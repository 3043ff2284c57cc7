package invoice

import (
	"context"

	"github.com/shopspring/decimal"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/stock"
)

// Repository persists invoices. Getters filter by branch and hide
// soft-deleted headers behind NotFound.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, branchID, invoiceID id.ID) (*Invoice, error)

	// GetForUpdate loads the header with a row lock.
	GetForUpdate(ctx context.Context, branchID, invoiceID id.ID) (*Invoice, error)

	// Update writes header fields where version equals inv.ExpectedVersion()
	// and bumps it; a stale version yields ConcurrencyConflict.
	Update(ctx context.Context, inv *Invoice) error

	// GetLines returns live lines ordered by line number.
	GetLines(ctx context.Context, invoiceID id.ID) ([]*Line, error)
	InsertLines(ctx context.Context, lines []*Line) error
	UpdateLine(ctx context.Context, line *Line) error
	SoftDeleteLines(ctx context.Context, ids []id.ID) error

	HasLivePayments(ctx context.Context, invoiceID id.ID) (bool, error)
}

// CatalogReader resolves line references and the contact.
type CatalogReader interface {
	GetItem(ctx context.Context, sc scope.Scope, itemID id.ID) (*catalog.Item, error)
	GetExpenseDefinition(ctx context.Context, sc scope.Scope, defID id.ID) (*catalog.ExpenseDefinition, error)
	GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error)
}

// StockSync rebuilds the stock movements of an invoice.
type StockSync interface {
	ResyncForInvoice(ctx context.Context, doc stock.InvoiceDocument) error
}

// BalanceRecalculator recomputes the invoice balance inside the caller's transaction.
type BalanceRecalculator interface {
	RecalculateInvoice(ctx context.Context, invoiceID id.ID) (decimal.Decimal, error)
}
