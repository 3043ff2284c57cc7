package expense

import (
	"context"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/invoice"
)

// Repository persists expense lists and their lines.
type Repository interface {
	Create(ctx context.Context, l *List) error
	GetByID(ctx context.Context, branchID, listID id.ID) (*List, error)
	GetForUpdate(ctx context.Context, branchID, listID id.ID) (*List, error)
	Update(ctx context.Context, l *List) error

	GetLines(ctx context.Context, listID id.ID) ([]*Line, error)
	InsertLines(ctx context.Context, lines []*Line) error
	UpdateLine(ctx context.Context, line *Line) error
	SoftDeleteLines(ctx context.Context, ids []id.ID) error

	// StampLines links lines to the bill they were posted on.
	StampLines(ctx context.Context, ids []id.ID, invoiceID id.ID) error
}

// InvoiceCreator is the invoice engine's create operation.
type InvoiceCreator interface {
	Create(ctx context.Context, sc scope.Scope, cmd invoice.CreateCommand) (*invoice.Invoice, error)
}
