package invoice

import (
	"context"
	"maps"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/stock"
)

// memRepo stores copies so callers cannot mutate persisted state without
// going through Update.
type memRepo struct {
	invoices map[id.ID]Invoice
	lines    map[id.ID]Line
	payments map[id.ID]decimal.Decimal
	writes   int
}

func newMemRepo() *memRepo {
	return &memRepo{
		invoices: map[id.ID]Invoice{},
		lines:    map[id.ID]Line{},
		payments: map[id.ID]decimal.Decimal{},
	}
}

func (r *memRepo) Create(_ context.Context, inv *Invoice) error {
	cp := *inv
	cp.Lines = nil
	cp.ExpectVersion(0)
	r.invoices[inv.ID] = cp
	r.writes++
	return nil
}

func (r *memRepo) GetByID(_ context.Context, branchID, invoiceID id.ID) (*Invoice, error) {
	inv, ok := r.invoices[invoiceID]
	if !ok || inv.BranchID != branchID || inv.DeletionMark {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	return &inv, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, branchID, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, branchID, invoiceID)
}

func (r *memRepo) Update(_ context.Context, inv *Invoice) error {
	stored, ok := r.invoices[inv.ID]
	if !ok || stored.Version != inv.ExpectedVersion() {
		return apperror.NewConcurrencyConflict("invoice", inv.ID)
	}
	cp := *inv
	cp.Lines = nil
	cp.Version = stored.Version + 1
	cp.ExpectVersion(0)
	r.invoices[inv.ID] = cp
	r.writes++
	return nil
}

func (r *memRepo) GetLines(_ context.Context, invoiceID id.ID) ([]*Line, error) {
	var out []*Line
	for _, l := range r.lines {
		if l.InvoiceID == invoiceID && !l.DeletionMark {
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
	r.writes++
	return nil
}

func (r *memRepo) UpdateLine(_ context.Context, line *Line) error {
	r.lines[line.ID] = *line
	r.writes++
	return nil
}

func (r *memRepo) SoftDeleteLines(_ context.Context, ids []id.ID) error {
	for _, lid := range ids {
		l := r.lines[lid]
		l.DeletionMark = true
		r.lines[lid] = l
	}
	r.writes++
	return nil
}

func (r *memRepo) HasLivePayments(_ context.Context, invoiceID id.ID) (bool, error) {
	_, ok := r.payments[invoiceID]
	return ok, nil
}

// rollbackTx restores memRepo to its state at the start of the outermost
// transaction when fn fails, the way a database rollback would.
type rollbackTx struct {
	repo  *memRepo
	depth int
}

func (t *rollbackTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.depth > 0 {
		return fn(ctx)
	}
	invoices, lines, payments := maps.Clone(t.repo.invoices), maps.Clone(t.repo.lines), maps.Clone(t.repo.payments)
	t.depth++
	err := fn(ctx)
	t.depth--
	if err != nil {
		t.repo.invoices, t.repo.lines, t.repo.payments = invoices, lines, payments
	}
	return err
}

// balanceFake recomputes from memRepo like the balance service does.
type balanceFake struct {
	repo *memRepo
}

func (b balanceFake) RecalculateInvoice(_ context.Context, invoiceID id.ID) (decimal.Decimal, error) {
	inv := b.repo.invoices[invoiceID]
	bal := types.RoundAtScale(inv.TotalGross.Sub(b.repo.payments[invoiceID]), types.ScaleMoney)
	inv.Balance = bal
	b.repo.invoices[invoiceID] = inv
	return bal, nil
}

type mockStock struct {
	mock.Mock
}

func (m *mockStock) ResyncForInvoice(ctx context.Context, doc stock.InvoiceDocument) error {
	return m.Called(ctx, doc).Error(0)
}

type memCatalog struct {
	items    map[id.ID]*catalog.Item
	defs     map[id.ID]*catalog.ExpenseDefinition
	contacts map[id.ID]*catalog.Contact
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		items:    map[id.ID]*catalog.Item{},
		defs:     map[id.ID]*catalog.ExpenseDefinition{},
		contacts: map[id.ID]*catalog.Contact{},
	}
}

func (c *memCatalog) addItem(branchID id.ID, code string, tracked bool) *catalog.Item {
	it := &catalog.Item{Code: code, Name: code + " name", Unit: "pcs", StockTracked: tracked}
	it.ID = id.New()
	it.BranchID = branchID
	c.items[it.ID] = it
	return it
}

func (c *memCatalog) addDefinition(branchID id.ID, code string) *catalog.ExpenseDefinition {
	d := &catalog.ExpenseDefinition{Code: code, Name: code + " name", Unit: "svc"}
	d.ID = id.New()
	d.BranchID = branchID
	c.defs[d.ID] = d
	return d
}

func (c *memCatalog) addContact(branchID id.ID) *catalog.Contact {
	ct := &catalog.Contact{Code: "C1", Name: "Customer"}
	ct.ID = id.New()
	ct.BranchID = branchID
	c.contacts[ct.ID] = ct
	return ct
}

func (c *memCatalog) GetItem(_ context.Context, sc scope.Scope, itemID id.ID) (*catalog.Item, error) {
	if it, ok := c.items[itemID]; ok && sc.Owns(it.BranchID) {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", itemID)
}

func (c *memCatalog) GetExpenseDefinition(_ context.Context, sc scope.Scope, defID id.ID) (*catalog.ExpenseDefinition, error) {
	if d, ok := c.defs[defID]; ok && sc.Owns(d.BranchID) {
		return d, nil
	}
	return nil, apperror.NewNotFound("expense definition", defID)
}

func (c *memCatalog) GetContact(_ context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error) {
	if ct, ok := c.contacts[contactID]; ok && sc.Owns(ct.BranchID) {
		return ct, nil
	}
	return nil, apperror.NewNotFound("contact", contactID)
}
