package order

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/invoice"
	"hesap/internal/domain/stock"
)

type memRepo struct {
	orders map[id.ID]Order
	lines  map[id.ID]Line
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[id.ID]Order{}, lines: map[id.ID]Line{}}
}

func (r *memRepo) Create(_ context.Context, o *Order) error {
	cp := *o
	cp.Lines = nil
	r.orders[o.ID] = cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, branchID, orderID id.ID) (*Order, error) {
	o, ok := r.orders[orderID]
	if !ok || o.BranchID != branchID || o.DeletionMark {
		return nil, apperror.NewNotFound("order", orderID)
	}
	return &o, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, branchID, orderID id.ID) (*Order, error) {
	return r.GetByID(ctx, branchID, orderID)
}

func (r *memRepo) Update(_ context.Context, o *Order) error {
	stored, ok := r.orders[o.ID]
	if !ok || stored.Version != o.ExpectedVersion() {
		return apperror.NewConcurrencyConflict("order", o.ID)
	}
	cp := *o
	cp.Lines = nil
	cp.Version = stored.Version + 1
	cp.ExpectVersion(0)
	r.orders[o.ID] = cp
	return nil
}

func (r *memRepo) GetLines(_ context.Context, orderID id.ID) ([]*Line, error) {
	var out []*Line
	for _, l := range r.lines {
		if l.OrderID == orderID && !l.DeletionMark {
			cp := l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out, nil
}

func (r *memRepo) InsertLines(_ context.Context, lines []*Line) error {
	for _, l := range lines {
		r.lines[l.ID] = *l
	}
	return nil
}

func (r *memRepo) UpdateLine(_ context.Context, line *Line) error {
	r.lines[line.ID] = *line
	return nil
}

func (r *memRepo) SoftDeleteLines(_ context.Context, ids []id.ID) error {
	for _, lid := range ids {
		l := r.lines[lid]
		l.DeletionMark = true
		r.lines[lid] = l
	}
	return nil
}

type memCatalog struct {
	items    map[id.ID]*catalog.Item
	contacts map[id.ID]*catalog.Contact
}

func (c *memCatalog) GetItem(_ context.Context, sc scope.Scope, itemID id.ID) (*catalog.Item, error) {
	if it, ok := c.items[itemID]; ok && sc.Owns(it.BranchID) {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", itemID)
}

func (c *memCatalog) GetExpenseDefinition(_ context.Context, _ scope.Scope, defID id.ID) (*catalog.ExpenseDefinition, error) {
	return nil, apperror.NewNotFound("expense definition", defID)
}

func (c *memCatalog) GetContact(_ context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error) {
	if ct, ok := c.contacts[contactID]; ok && sc.Owns(ct.BranchID) {
		return ct, nil
	}
	return nil, apperror.NewNotFound("contact", contactID)
}

// invoiceStore is a minimal invoice repository so order conversion runs
// through the real invoice engine.
type invoiceStore struct {
	invoices map[id.ID]invoice.Invoice
	lines    map[id.ID][]*invoice.Line
}

func newInvoiceStore() *invoiceStore {
	return &invoiceStore{invoices: map[id.ID]invoice.Invoice{}, lines: map[id.ID][]*invoice.Line{}}
}

func (r *invoiceStore) Create(_ context.Context, inv *invoice.Invoice) error {
	r.invoices[inv.ID] = *inv
	return nil
}

func (r *invoiceStore) GetByID(_ context.Context, _ id.ID, invoiceID id.ID) (*invoice.Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return &inv, nil
}

func (r *invoiceStore) GetForUpdate(ctx context.Context, branchID, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.GetByID(ctx, branchID, invoiceID)
}

func (r *invoiceStore) Update(_ context.Context, inv *invoice.Invoice) error {
	r.invoices[inv.ID] = *inv
	return nil
}

func (r *invoiceStore) GetLines(_ context.Context, invoiceID id.ID) ([]*invoice.Line, error) {
	return r.lines[invoiceID], nil
}

func (r *invoiceStore) InsertLines(_ context.Context, lines []*invoice.Line) error {
	for _, l := range lines {
		r.lines[l.InvoiceID] = append(r.lines[l.InvoiceID], l)
	}
	return nil
}

func (r *invoiceStore) UpdateLine(context.Context, *invoice.Line) error { return nil }

func (r *invoiceStore) SoftDeleteLines(context.Context, []id.ID) error { return nil }

func (r *invoiceStore) HasLivePayments(context.Context, id.ID) (bool, error) { return false, nil }

type grossBalance struct {
	store *invoiceStore
}

func (b grossBalance) RecalculateInvoice(_ context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	return b.store.invoices[invoiceID].TotalGross, nil
}

// stockRecorder collects the documents the invoice engine resyncs.
type stockRecorder struct {
	docs []stock.InvoiceDocument
	err  error
}

func (s *stockRecorder) ResyncForInvoice(_ context.Context, doc stock.InvoiceDocument) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}
