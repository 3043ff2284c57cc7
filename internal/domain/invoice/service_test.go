package invoice

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/numerator"
	"hesap/internal/core/scope"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
	"hesap/internal/domain/stock"
)

type InvoiceServiceSuite struct {
	suite.Suite

	ctx     context.Context
	repo    *memRepo
	catalog *memCatalog
	stock   *mockStock
	svc     *Service

	sc      scope.Scope
	contact *catalog.Contact
	item    *catalog.Item
	service *catalog.Item
	def     *catalog.ExpenseDefinition
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = newMemRepo()
	s.catalog = newMemCatalog()
	s.stock = &mockStock{}
	s.stock.On("ResyncForInvoice", mock.Anything, mock.Anything).Return(nil).Maybe()

	s.svc = NewService(Deps{
		Repo:      s.repo,
		Catalog:   s.catalog,
		Stock:     s.stock,
		Balances:  balanceFake{repo: s.repo},
		Numerator: numerator.NewSequenceGenerator(),
		TxManager: &rollbackTx{repo: s.repo},
		Events:    event.Discard{},
	})

	s.sc = scope.New(id.New(), "u1")
	s.contact = s.catalog.addContact(s.sc.BranchID)
	s.item = s.catalog.addItem(s.sc.BranchID, "ITM-3", true)
	s.service = s.catalog.addItem(s.sc.BranchID, "SRV-1", false)
	s.def = s.catalog.addDefinition(s.sc.BranchID, "RENT")
}

func TestInvoiceServiceSuite(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) itemLine(item *catalog.Item, qty, price string, vat int) LineInput {
	return LineInput{ItemID: id.Ptr(item.ID), Quantity: qty, UnitPrice: price, VATRate: vat}
}

func (s *InvoiceServiceSuite) create(typ Type, lines ...LineInput) *Invoice {
	inv, err := s.svc.Create(s.ctx, s.sc, CreateCommand{
		ContactID: s.contact.ID,
		Date:      "2025-01-10T00:00:00Z",
		Currency:  "TRY",
		Type:      string(typ),
		Lines:     lines,
	})
	s.Require().NoError(err)
	return inv
}

// assertTotals checks the line and header invariants against persisted state.
func (s *InvoiceServiceSuite) assertTotals(invoiceID id.ID) {
	stored, err := s.svc.Get(s.ctx, s.sc, invoiceID)
	s.Require().NoError(err)

	net, vat, gross := decimal.Zero, decimal.Zero, decimal.Zero
	for _, l := range stored.Lines {
		s.True(l.Net.Equal(types.MulRound(l.Quantity, l.UnitPrice, types.ScaleMoney)))
		s.True(l.VAT.Equal(types.RoundAtScale(l.Net.Mul(decimal.NewFromInt(int64(l.VATRate))).Div(decimal.NewFromInt(100)), types.ScaleMoney)))
		s.True(l.Gross.Equal(l.Net.Add(l.VAT)))
		net, vat, gross = net.Add(l.Net), vat.Add(l.VAT), gross.Add(l.Gross)
	}
	s.True(stored.TotalNet.Equal(net), "net %s != %s", stored.TotalNet, net)
	s.True(stored.TotalVAT.Equal(vat))
	s.True(stored.TotalGross.Equal(gross))
}

func (s *InvoiceServiceSuite) TestCreate_Example() {
	inv := s.create(TypeSales, s.itemLine(s.item, "2.000", "100.0000", 20))

	s.Equal("200.00", types.FormatMoney(inv.TotalNet))
	s.Equal("40.00", types.FormatMoney(inv.TotalVAT))
	s.Equal("240.00", types.FormatMoney(inv.TotalGross))
	s.Equal("240.00", types.FormatMoney(inv.Balance))
	s.Equal("SI-2025-00001", inv.Number)
	s.Equal(int64(1), inv.Version)
	s.Require().Len(inv.Lines, 1)
	s.Equal("ITM-3", inv.Lines[0].Code)
	s.assertTotals(inv.ID)
}

func (s *InvoiceServiceSuite) TestCreate_RoundsEachStep() {
	inv := s.create(TypeSales,
		s.itemLine(s.item, "3.333", "0.3333", 18),
		s.itemLine(s.item, "1", "0.005", 0),
	)

	// 3.333 * 0.3333 = 1.1108889 -> 1.11; 1.11 * 18% = 0.1998 -> 0.20
	s.Equal("1.11", types.FormatMoney(inv.Lines[0].Net))
	s.Equal("0.20", types.FormatMoney(inv.Lines[0].VAT))
	s.Equal("1.31", types.FormatMoney(inv.Lines[0].Gross))
	s.Equal("0.01", types.FormatMoney(inv.Lines[1].Net))
	s.Equal("1.32", types.FormatMoney(inv.TotalGross))
	s.assertTotals(inv.ID)
}

func (s *InvoiceServiceSuite) TestCreate_StockResyncOnlyTrackedLines() {
	var doc stock.InvoiceDocument
	s.stock.ExpectedCalls = nil
	s.stock.On("ResyncForInvoice", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { doc = args.Get(1).(stock.InvoiceDocument) }).
		Return(nil).Once()

	inv := s.create(TypeSales,
		s.itemLine(s.item, "2", "10", 20),
		s.itemLine(s.service, "1", "50", 20),
	)

	s.stock.AssertExpectations(s.T())
	s.Equal(inv.ID, doc.InvoiceID)
	s.Require().NotNil(doc.MovementType)
	s.Equal(stock.SalesOut, *doc.MovementType)
	s.Require().Len(doc.Lines, 1)
	s.Equal(s.item.ID, doc.Lines[0].ItemID)
	s.Equal("2.000", types.FormatQuantity(doc.Lines[0].Quantity))
}

func (s *InvoiceServiceSuite) TestCreate_ExpenseInvoiceHasNoMovementType() {
	var doc stock.InvoiceDocument
	s.stock.ExpectedCalls = nil
	s.stock.On("ResyncForInvoice", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { doc = args.Get(1).(stock.InvoiceDocument) }).
		Return(nil).Once()

	inv := s.create(TypeExpense, LineInput{
		ExpenseDefinitionID: id.Ptr(s.def.ID), Quantity: "1", UnitPrice: "1000", VATRate: 20,
	})

	s.Equal("EX-2025-00001", inv.Number)
	s.Nil(doc.MovementType)
	s.Equal("RENT", inv.Lines[0].Code)
}

func (s *InvoiceServiceSuite) TestCreate_PairingRules() {
	cases := map[string]CreateCommand{
		"expense with item": {Type: string(TypeExpense), Lines: []LineInput{
			{ItemID: id.Ptr(s.item.ID), Quantity: "1", UnitPrice: "1"},
		}},
		"sales with definition": {Type: string(TypeSales), Lines: []LineInput{
			{ExpenseDefinitionID: id.Ptr(s.def.ID), Quantity: "1", UnitPrice: "1"},
		}},
		"both references": {Type: string(TypePurchase), Lines: []LineInput{
			{ItemID: id.Ptr(s.item.ID), ExpenseDefinitionID: id.Ptr(s.def.ID), Quantity: "1", UnitPrice: "1"},
		}},
		"no reference": {Type: string(TypeSales), Lines: []LineInput{
			{Quantity: "1", UnitPrice: "1"},
		}},
	}

	for name, cmd := range cases {
		cmd.ContactID = s.contact.ID
		cmd.Date = "2025-01-10"
		cmd.Currency = "TRY"
		_, err := s.svc.Create(s.ctx, s.sc, cmd)
		s.True(apperror.HasCode(err, CodeLineReference), name)
	}
	s.Zero(s.repo.writes)
}

func (s *InvoiceServiceSuite) TestCreate_ValidationBeforeStore() {
	base := CreateCommand{ContactID: s.contact.ID, Date: "2025-01-10", Currency: "TRY", Type: string(TypeSales)}
	cases := map[string]func(c *CreateCommand){
		"bad decimal": func(c *CreateCommand) { c.Lines = []LineInput{s.itemLine(s.item, "1,5", "1", 0)} },
		"vat range":   func(c *CreateCommand) { c.Lines = []LineInput{s.itemLine(s.item, "1", "1", 101)} },
		"zero qty":    func(c *CreateCommand) { c.Lines = []LineInput{s.itemLine(s.item, "0", "1", 0)} },
		"no lines":    func(c *CreateCommand) { c.Lines = nil },
		"bad date": func(c *CreateCommand) {
			c.Date = "10.01.2025"
			c.Lines = []LineInput{s.itemLine(s.item, "1", "1", 0)}
		},
		"bad currency": func(c *CreateCommand) {
			c.Currency = "LIRA"
			c.Lines = []LineInput{s.itemLine(s.item, "1", "1", 0)}
		},
		"bad type": func(c *CreateCommand) {
			c.Type = "Gift"
			c.Lines = []LineInput{s.itemLine(s.item, "1", "1", 0)}
		},
	}

	for name, mutate := range cases {
		cmd := base
		mutate(&cmd)
		_, err := s.svc.Create(s.ctx, s.sc, cmd)
		s.True(apperror.IsValidation(err), name)
	}
	s.Zero(s.repo.writes)
}

func (s *InvoiceServiceSuite) TestCreate_UnknownContactOrItem() {
	_, err := s.svc.Create(s.ctx, s.sc, CreateCommand{
		ContactID: id.New(), Date: "2025-01-10", Currency: "TRY", Type: string(TypeSales),
		Lines: []LineInput{s.itemLine(s.item, "1", "1", 0)},
	})
	s.True(apperror.IsNotFound(err))

	_, err = s.svc.Create(s.ctx, s.sc, CreateCommand{
		ContactID: s.contact.ID, Date: "2025-01-10", Currency: "TRY", Type: string(TypeSales),
		Lines: []LineInput{{ItemID: id.Ptr(id.New()), Quantity: "1", UnitPrice: "1"}},
	})
	s.True(apperror.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestCreate_RequiresBranch() {
	_, err := s.svc.Create(s.ctx, scope.Scope{UserID: "u1"}, CreateCommand{})

	s.True(apperror.IsUnauthorized(err))
}

func (s *InvoiceServiceSuite) TestUpdateHeader_TypeImmutable() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	_, err := s.svc.UpdateHeader(s.ctx, s.sc, inv.ID, UpdateHeaderCommand{
		RowVersion: inv.RowVersion(), ContactID: s.contact.ID,
		Date: "2025-02-01", Currency: "TRY", Type: string(TypePurchase),
	})

	s.True(apperror.HasCode(err, CodeTypeImmutable))
}

func (s *InvoiceServiceSuite) TestUpdateHeader_AdvancesVersion() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	updated, err := s.svc.UpdateHeader(s.ctx, s.sc, inv.ID, UpdateHeaderCommand{
		RowVersion: inv.RowVersion(), ContactID: s.contact.ID,
		Date: "2025-02-01", Currency: "usd", Type: string(TypeSales),
	})

	s.Require().NoError(err)
	s.Equal("USD", updated.Currency)
	s.Equal(2, int(updated.Date.Month()))
	s.Equal(int64(2), updated.Version)
	s.Equal(entity.EncodeToken(2), updated.RowVersion())
	s.Len(updated.Lines, 1)
	s.Equal(int64(2), s.repo.invoices[inv.ID].Version)
}

func (s *InvoiceServiceSuite) TestUpdateHeader_CurrencyLockedByPayments() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	s.repo.payments[inv.ID] = decimal.RequireFromString("5")

	_, err := s.svc.UpdateHeader(s.ctx, s.sc, inv.ID, UpdateHeaderCommand{
		RowVersion: inv.RowVersion(), ContactID: s.contact.ID,
		Date: "2025-01-10", Currency: "EUR", Type: string(TypeSales),
	})

	s.True(apperror.HasCode(err, CodeCurrencyLocked))
}

func (s *InvoiceServiceSuite) TestUpdateHeader_MalformedToken() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	_, err := s.svc.UpdateHeader(s.ctx, s.sc, inv.ID, UpdateHeaderCommand{
		RowVersion: "not-base64!", ContactID: s.contact.ID,
		Date: "2025-01-10", Currency: "TRY", Type: string(TypeSales),
	})

	s.True(apperror.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestUpdateLines_ThreeWaySync() {
	inv := s.create(TypeSales,
		s.itemLine(s.item, "1", "10", 20),
		s.itemLine(s.service, "1", "50", 20),
	)
	keep, drop := inv.Lines[0], inv.Lines[1]

	updated, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: inv.RowVersion(),
		Lines: []LineInput{
			{ID: id.Ptr(keep.ID), ItemID: id.Ptr(s.item.ID), Quantity: "4", UnitPrice: "10", VATRate: 20},
			s.itemLine(s.service, "2", "25", 10),
		},
	})

	s.Require().NoError(err)
	s.Require().Len(updated.Lines, 2)
	s.Equal(keep.ID, updated.Lines[0].ID)
	s.Equal("40.00", types.FormatMoney(updated.Lines[0].Net))
	s.Equal(3, updated.Lines[1].LineNo)
	s.True(s.repo.lines[drop.ID].DeletionMark)
	s.Equal("48.00", types.FormatMoney(updated.Lines[0].Gross))
	s.Equal("103.00", types.FormatMoney(updated.TotalGross))
	s.Equal("103.00", types.FormatMoney(updated.Balance))
	s.Equal(int64(2), updated.Version)
	s.assertTotals(inv.ID)
}

func (s *InvoiceServiceSuite) TestUpdateLines_SnapshotRefreshOnlyOnReferenceChange() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	line := inv.Lines[0]
	s.item.Name = "Renamed"
	other := s.catalog.addItem(s.sc.BranchID, "ITM-9", true)

	updated, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: inv.RowVersion(),
		Lines: []LineInput{
			{ID: id.Ptr(line.ID), ItemID: id.Ptr(s.item.ID), Quantity: "2", UnitPrice: "10"},
		},
	})
	s.Require().NoError(err)
	s.Equal("ITM-3 name", updated.Lines[0].Name)

	updated, err = s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: updated.RowVersion(),
		Lines: []LineInput{
			{ID: id.Ptr(line.ID), ItemID: id.Ptr(other.ID), Quantity: "2", UnitPrice: "10"},
		},
	})
	s.Require().NoError(err)
	s.Equal("ITM-9", updated.Lines[0].Code)
	s.Equal(int64(3), updated.Version)
}

func (s *InvoiceServiceSuite) TestUpdateLines_StockFailureRollsBack() {
	inv := s.create(TypeSales,
		s.itemLine(s.item, "1", "10", 20),
		s.itemLine(s.service, "1", "50", 20),
	)
	kept := inv.Lines[0]
	s.stock.ExpectedCalls = nil
	s.stock.On("ResyncForInvoice", mock.Anything, mock.Anything).
		Return(apperror.NewInsufficientStock(s.item.ID.String(), "9.000", "1.000")).Once()

	_, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: inv.RowVersion(),
		Lines: []LineInput{
			{ID: id.Ptr(kept.ID), ItemID: id.Ptr(s.item.ID), Quantity: "9", UnitPrice: "10", VATRate: 20},
			s.itemLine(s.service, "3", "5", 0),
		},
	})

	s.True(apperror.HasCode(err, apperror.CodeInsufficientStock))
	s.stock.AssertExpectations(s.T())
	stored, err := s.svc.Get(s.ctx, s.sc, inv.ID)
	s.Require().NoError(err)
	s.Equal(inv.Version, stored.Version)
	s.Equal(inv.RowVersion(), stored.RowVersion())
	s.Equal("72.00", types.FormatMoney(stored.TotalGross))
	s.Equal("72.00", types.FormatMoney(stored.Balance))
	s.Require().Len(stored.Lines, 2)
	for i, l := range stored.Lines {
		s.Equal(inv.Lines[i].ID, l.ID)
		s.Equal(types.FormatQuantity(inv.Lines[i].Quantity), types.FormatQuantity(l.Quantity))
		s.Equal(types.FormatMoney(inv.Lines[i].Gross), types.FormatMoney(l.Gross))
	}
	s.assertTotals(inv.ID)
}

func TestRollbackTx_RestoresOnError(t *testing.T) {
	repo := newMemRepo()
	txm := &rollbackTx{repo: repo}
	keep := Line{}
	keep.ID = id.New()
	repo.lines[keep.ID] = keep

	err := txm.RunInTransaction(context.Background(), func(ctx context.Context) error {
		return txm.RunInTransaction(ctx, func(context.Context) error {
			extra := Line{}
			extra.ID = id.New()
			repo.lines[extra.ID] = extra
			delete(repo.lines, keep.ID)
			return apperror.NewValidation("boom")
		})
	})

	require.Error(t, err)
	assert.Len(t, repo.lines, 1)
	assert.Contains(t, repo.lines, keep.ID)
}

func (s *InvoiceServiceSuite) TestUpdateLines_UnknownLine() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	writes := s.repo.writes

	_, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: inv.RowVersion(),
		Lines: []LineInput{
			{ID: id.Ptr(id.New()), ItemID: id.Ptr(s.item.ID), Quantity: "1", UnitPrice: "10"},
		},
	})

	s.True(apperror.IsNotFound(err))
	s.Equal(writes, s.repo.writes)
}

func (s *InvoiceServiceSuite) TestUpdateLines_PairingAgainstStoredType() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	_, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: inv.RowVersion(),
		Lines:      []LineInput{{ExpenseDefinitionID: id.Ptr(s.def.ID), Quantity: "1", UnitPrice: "1"}},
	})

	s.True(apperror.HasCode(err, CodeLineReference))
}

func (s *InvoiceServiceSuite) TestConcurrentWritersWithSameToken() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	token := inv.RowVersion()

	first, err := s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: token,
		Lines:      []LineInput{{ID: id.Ptr(inv.Lines[0].ID), ItemID: id.Ptr(s.item.ID), Quantity: "3", UnitPrice: "10"}},
	})
	s.Require().NoError(err)

	_, err = s.svc.UpdateLines(s.ctx, s.sc, inv.ID, UpdateLinesCommand{
		RowVersion: token,
		Lines:      []LineInput{{ID: id.Ptr(inv.Lines[0].ID), ItemID: id.Ptr(s.item.ID), Quantity: "7", UnitPrice: "10"}},
	})
	s.True(apperror.IsConcurrencyConflict(err))

	stored, err := s.svc.Get(s.ctx, s.sc, inv.ID)
	s.Require().NoError(err)
	s.Equal(first.Version, stored.Version)
	s.Equal("30.00", types.FormatMoney(stored.TotalGross))
}

func (s *InvoiceServiceSuite) TestDelete() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	var doc stock.InvoiceDocument
	s.stock.ExpectedCalls = nil
	s.stock.On("ResyncForInvoice", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { doc = args.Get(1).(stock.InvoiceDocument) }).
		Return(nil).Once()

	s.Require().NoError(s.svc.Delete(s.ctx, s.sc, inv.ID, inv.RowVersion()))

	s.True(doc.Deleted)
	_, err := s.svc.Get(s.ctx, s.sc, inv.ID)
	s.True(apperror.IsNotFound(err))
	s.False(s.repo.lines[inv.Lines[0].ID].DeletionMark)
}

func (s *InvoiceServiceSuite) TestDelete_BlockedByPayments() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))
	s.repo.payments[inv.ID] = decimal.RequireFromString("10")

	err := s.svc.Delete(s.ctx, s.sc, inv.ID, inv.RowVersion())

	s.True(apperror.HasCode(err, CodeHasPayments))
}

func (s *InvoiceServiceSuite) TestDelete_StaleToken() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	err := s.svc.Delete(s.ctx, s.sc, inv.ID, entity.EncodeToken(7))

	s.True(apperror.IsConcurrencyConflict(err))
}

func (s *InvoiceServiceSuite) TestOtherBranchIsNotFound() {
	inv := s.create(TypeSales, s.itemLine(s.item, "1", "10", 0))

	_, err := s.svc.Get(s.ctx, scope.New(id.New(), "u2"), inv.ID)

	s.True(apperror.IsNotFound(err))
}

func TestLine_Recompute(t *testing.T) {
	l := &Line{
		Quantity:  decimal.RequireFromString("2.000"),
		UnitPrice: decimal.RequireFromString("100.0000"),
		VATRate:   20,
	}

	l.Recompute()

	assert.Equal(t, "200.00", types.FormatMoney(l.Net))
	assert.Equal(t, "40.00", types.FormatMoney(l.VAT))
	assert.Equal(t, "240.00", types.FormatMoney(l.Gross))
}

func TestType_StockMovement(t *testing.T) {
	tests := map[Type]*stock.MovementType{
		TypeSales:          ptr(stock.SalesOut),
		TypePurchase:       ptr(stock.PurchaseIn),
		TypeSalesReturn:    ptr(stock.SalesReturn),
		TypePurchaseReturn: ptr(stock.PurchaseReturn),
		TypeExpense:        nil,
	}
	for typ, want := range tests {
		got := typ.StockMovement()
		if want == nil {
			assert.Nil(t, got, typ)
			continue
		}
		require.NotNil(t, got, typ)
		assert.Equal(t, *want, *got)
	}
}

func ptr[T any](v T) *T { return &v }
