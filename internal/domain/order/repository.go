package order

import (
	"context"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/invoice"
)

// Repository persists orders and their lines.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, branchID, orderID id.ID) (*Order, error)

	// GetForUpdate loads the header with a row lock.
	GetForUpdate(ctx context.Context, branchID, orderID id.ID) (*Order, error)

	// Update writes the header guarded by its expected version.
	Update(ctx context.Context, o *Order) error

	GetLines(ctx context.Context, orderID id.ID) ([]*Line, error)
	InsertLines(ctx context.Context, lines []*Line) error
	UpdateLine(ctx context.Context, line *Line) error
	SoftDeleteLines(ctx context.Context, ids []id.ID) error
}

// CatalogReader resolves items and contacts in the caller's branch.
type CatalogReader interface {
	GetItem(ctx context.Context, sc scope.Scope, itemID id.ID) (*catalog.Item, error)
	GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error)
}

// InvoiceCreator is the invoice engine's create operation.
type InvoiceCreator interface {
	Create(ctx context.Context, sc scope.Scope, cmd invoice.CreateCommand) (*invoice.Invoice, error)
}
