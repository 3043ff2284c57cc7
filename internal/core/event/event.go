// Package event defines domain events written to the transactional outbox.
package event

import (
	"context"

	"hesap/internal/core/id"
)

// Event types emitted by the domain services.
const (
	InvoiceCreated      = "invoice.created"
	InvoiceUpdated      = "invoice.updated"
	InvoiceDeleted      = "invoice.deleted"
	PaymentRecorded     = "payment.recorded"
	PaymentDeleted      = "payment.deleted"
	StockMoved          = "stock.moved"
	StockTransferred    = "stock.transferred"
	OrderApproved       = "order.approved"
	OrderInvoiced       = "order.invoiced"
	ExpenseListPosted   = "expense_list.posted"
	ExpenseListReviewed = "expense_list.reviewed"
)

// Event is a fact about an aggregate, published inside the writing transaction.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	BranchID      id.ID
	Type          string
	UserID        string
	Payload       any
}

// Publisher stores events; implementations must join the transaction in ctx.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Discard drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, Event) error { return nil }
