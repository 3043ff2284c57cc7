package repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/order"
	"hesap/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderLinesTable = "order_lines"
)

var (
	orderColumns     = postgres.ExtractDBColumns[order.Order]()
	orderLineColumns = postgres.ExtractDBColumns[order.Line]()
)

// OrderRepo implements order.Repository.
type OrderRepo struct {
	base
	lines lineStore
}

var _ order.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txm *postgres.TxManager) *OrderRepo {
	b := newBase(txm)
	return &OrderRepo{
		base:  b,
		lines: newLineStore(b, orderLinesTable, "order line", "order_id", orderLineColumns),
	}
}

// Create implements order.Repository.
func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.insert(ctx, ordersTable, "order", orderColumns, o)
}

// GetByID implements order.Repository.
func (r *OrderRepo) GetByID(ctx context.Context, branchID, orderID id.ID) (*order.Order, error) {
	return r.load(ctx, branchRowQuery(ordersTable, orderColumns, branchID, orderID), orderID)
}

// GetForUpdate implements order.Repository.
func (r *OrderRepo) GetForUpdate(ctx context.Context, branchID, orderID id.ID) (*order.Order, error) {
	q := branchRowQuery(ordersTable, orderColumns, branchID, orderID).Suffix("FOR UPDATE")
	return r.load(ctx, q, orderID)
}

func (r *OrderRepo) load(ctx context.Context, q squirrel.SelectBuilder, orderID id.ID) (*order.Order, error) {
	var o order.Order
	if err := r.get(ctx, &o, q); err != nil {
		return nil, postgres.NotFoundOr(err, "order", orderID)
	}
	return &o, nil
}

// Update implements order.Repository.
func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	return r.updateVersioned(ctx, ordersTable, "order", orderColumns, o, &o.BaseEntity)
}

// GetLines implements order.Repository.
func (r *OrderRepo) GetLines(ctx context.Context, orderID id.ID) ([]*order.Line, error) {
	var lines []*order.Line
	if err := r.lines.list(ctx, &lines, orderID); err != nil {
		return nil, err
	}
	return lines, nil
}

// InsertLines implements order.Repository.
func (r *OrderRepo) InsertLines(ctx context.Context, lines []*order.Line) error {
	rows := make([]any, len(lines))
	for i, l := range lines {
		rows[i] = l
	}
	return r.lines.insert(ctx, rows)
}

// UpdateLine implements order.Repository.
func (r *OrderRepo) UpdateLine(ctx context.Context, line *order.Line) error {
	return r.lines.update(ctx, line.ID, line)
}

// SoftDeleteLines implements order.Repository.
func (r *OrderRepo) SoftDeleteLines(ctx context.Context, ids []id.ID) error {
	return r.lines.softDelete(ctx, ids)
}
