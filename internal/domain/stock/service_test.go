package stock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"hesap/internal/core/apperror"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e event.Event) error {
	return m.Called(ctx, e).Error(0)
}

type StockServiceSuite struct {
	suite.Suite

	ctx    context.Context
	repo   *memRepo
	dir    *memDirectory
	events *mockPublisher
	svc    *Service

	sc   scope.Scope
	whA  *catalog.Warehouse
	whB  *catalog.Warehouse
	item *catalog.Item
}

func (s *StockServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = newMemRepo()
	s.dir = newMemDirectory()
	s.events = &mockPublisher{}
	s.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	s.svc = NewService(s.repo, s.dir, tx.Inline{}, s.events)

	s.sc = scope.New(id.New(), "u1")
	s.whA = s.dir.addWarehouse(s.sc.BranchID, "A", true)
	s.whB = s.dir.addWarehouse(s.sc.BranchID, "B", false)
	s.item = s.dir.addItem(s.sc.BranchID)
}

func TestStockServiceSuite(t *testing.T) {
	suite.Run(t, new(StockServiceSuite))
}

func (s *StockServiceSuite) key(wh *catalog.Warehouse) Key {
	return Key{BranchID: s.sc.BranchID, WarehouseID: wh.ID, ItemID: s.item.ID}
}

func (s *StockServiceSuite) receive(wh *catalog.Warehouse, q string) {
	_, err := s.svc.RecordMovement(s.ctx, s.sc, RecordCommand{
		WarehouseID: wh.ID, ItemID: s.item.ID, Type: string(PurchaseIn), Quantity: q,
	})
	s.Require().NoError(err)
}

func (s *StockServiceSuite) TestRecordMovement_InboundAndOutbound() {
	s.receive(s.whA, "12.5")

	res, err := s.svc.RecordMovement(s.ctx, s.sc, RecordCommand{
		WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(SalesOut), Quantity: "2.0005",
	})

	s.Require().NoError(err)
	s.Equal("10.499", types.FormatQuantity(res.SnapshotQuantity))
	s.Equal("2.001", types.FormatQuantity(res.Movement.Quantity))
	s.repo.assertConserved(s.T())
	s.events.AssertNumberOfCalls(s.T(), "Publish", 2)
}

func (s *StockServiceSuite) TestRecordMovement_RejectsNegative() {
	s.receive(s.whA, "5")

	_, err := s.svc.RecordMovement(s.ctx, s.sc, RecordCommand{
		WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(AdjustmentOut), Quantity: "5.001",
	})

	s.True(apperror.IsBusinessRule(err))
	s.True(apperror.HasCode(err, apperror.CodeInsufficientStock))
	s.Equal("5.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	s.Len(s.repo.movements, 1)
}

func (s *StockServiceSuite) TestRecordMovement_Validation() {
	cases := []RecordCommand{
		{WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: "Teleport", Quantity: "1"},
		{WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(TransferIn), Quantity: "1"},
		{WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(PurchaseIn), Quantity: "0"},
		{WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(PurchaseIn), Quantity: "1,5"},
	}
	for _, cmd := range cases {
		_, err := s.svc.RecordMovement(s.ctx, s.sc, cmd)
		s.True(apperror.IsValidation(err), "%+v", cmd)
	}
	s.Empty(s.repo.movements)
}

func (s *StockServiceSuite) TestRecordMovement_OtherBranchWarehouseIsNotFound() {
	foreign := s.dir.addWarehouse(id.New(), "X", true)

	_, err := s.svc.RecordMovement(s.ctx, s.sc, RecordCommand{
		WarehouseID: foreign.ID, ItemID: s.item.ID, Type: string(PurchaseIn), Quantity: "1",
	})

	s.True(apperror.IsNotFound(err))
}

func (s *StockServiceSuite) TestTransfer_MovesStock() {
	s.receive(s.whA, "100.000")

	res, err := s.svc.Transfer(s.ctx, s.sc, TransferCommand{
		SourceWarehouseID: s.whA.ID, TargetWarehouseID: s.whB.ID, ItemID: s.item.ID,
		Quantity: "10.000", Note: "move",
	})

	s.Require().NoError(err)
	s.Equal("90.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	s.Equal("10.000", types.FormatQuantity(s.repo.quantity(s.key(s.whB))))
	s.Equal("90.000", types.FormatQuantity(res.SourceQuantity))

	var outs, ins []*Movement
	for _, m := range s.repo.live() {
		switch m.Type {
		case TransferOut:
			outs = append(outs, m)
		case TransferIn:
			ins = append(ins, m)
		}
	}
	s.Require().Len(outs, 1)
	s.Require().Len(ins, 1)
	s.Equal(s.whA.ID, outs[0].WarehouseID)
	s.Equal(s.whB.ID, ins[0].WarehouseID)
	s.Equal("10.000", types.FormatQuantity(outs[0].Quantity))
	s.Equal(*outs[0].TransferID, *ins[0].TransferID)
	s.Equal("move", outs[0].Note)
	s.Equal(outs[0].Note, ins[0].Note)
	s.Equal(res.OutMovementID, outs[0].ID)
	s.Equal(res.InMovementID, ins[0].ID)
	s.repo.assertConserved(s.T())
}

func (s *StockServiceSuite) TestTransfer_InsufficientStockChangesNothing() {
	s.receive(s.whA, "5.000")
	before := len(s.repo.movements)

	_, err := s.svc.Transfer(s.ctx, s.sc, TransferCommand{
		SourceWarehouseID: s.whA.ID, TargetWarehouseID: s.whB.ID, ItemID: s.item.ID, Quantity: "10.000",
	})

	s.True(apperror.IsBusinessRule(err))
	s.Equal("5.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	_, targetExists := s.repo.snaps[s.key(s.whB)]
	s.False(targetExists)
	s.Len(s.repo.movements, before)
}

func (s *StockServiceSuite) TestTransfer_SameWarehouse() {
	_, err := s.svc.Transfer(s.ctx, s.sc, TransferCommand{
		SourceWarehouseID: s.whA.ID, TargetWarehouseID: s.whA.ID, ItemID: s.item.ID, Quantity: "1",
	})

	s.True(apperror.IsValidation(err))
}

func (s *StockServiceSuite) TestTransfer_CrossBranchRejected() {
	s.receive(s.whA, "5")
	foreign := s.dir.addWarehouse(id.New(), "F", true)

	_, err := s.svc.Transfer(s.ctx, s.sc, TransferCommand{
		SourceWarehouseID: s.whA.ID, TargetWarehouseID: foreign.ID, ItemID: s.item.ID, Quantity: "1",
	})

	s.True(apperror.HasCode(err, CodeCrossBranchTransfer))

	_, err = s.svc.Transfer(s.ctx, s.sc, TransferCommand{
		SourceWarehouseID: foreign.ID, TargetWarehouseID: s.whA.ID, ItemID: s.item.ID, Quantity: "1",
	})
	s.True(apperror.IsNotFound(err))
}

func (s *StockServiceSuite) invoiceDoc(invoiceID id.ID, mt MovementType, lines ...InvoiceLine) InvoiceDocument {
	return InvoiceDocument{
		InvoiceID:    invoiceID,
		BranchID:     s.sc.BranchID,
		Number:       "SI-2025-00001",
		UserID:       s.sc.UserID,
		MovementType: &mt,
		Lines:        lines,
	}
}

func (s *StockServiceSuite) TestResyncForInvoice_ReplacesMovements() {
	s.receive(s.whA, "10")
	invoiceID := id.New()

	err := s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, SalesOut,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("4")}))
	s.Require().NoError(err)
	s.Equal("6.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))

	// quantity edit: old movement reversed, new one written
	err = s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, SalesOut,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("7")}))
	s.Require().NoError(err)
	s.Equal("3.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))

	linked, _ := s.repo.ListInvoiceMovements(s.ctx, s.sc.BranchID, invoiceID)
	s.Require().Len(linked, 1)
	s.Equal(SalesOut, linked[0].Type)
	s.Equal(s.whA.ID, linked[0].WarehouseID)
	s.repo.assertConserved(s.T())

	// idempotent
	err = s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, SalesOut,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("7")}))
	s.Require().NoError(err)
	s.Equal("3.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	s.repo.assertConserved(s.T())
}

func (s *StockServiceSuite) TestResyncForInvoice_DeletedInvoiceRestoresStock() {
	s.receive(s.whA, "10")
	invoiceID := id.New()
	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, SalesOut,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("4")})))

	doc := s.invoiceDoc(invoiceID, SalesOut)
	doc.Deleted = true
	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, doc))

	s.Equal("10.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	linked, _ := s.repo.ListInvoiceMovements(s.ctx, s.sc.BranchID, invoiceID)
	s.Empty(linked)
	s.repo.assertConserved(s.T())
}

func (s *StockServiceSuite) TestResyncForInvoice_NetCheckAcrossReversal() {
	invoiceID := id.New()
	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, PurchaseIn,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("10")})))
	_, err := s.svc.RecordMovement(s.ctx, s.sc, RecordCommand{
		WarehouseID: s.whA.ID, ItemID: s.item.ID, Type: string(SalesOut), Quantity: "5",
	})
	s.Require().NoError(err)

	// 5 on hand, purchase reduced 10 -> 8: net -2 keeps stock at 3
	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, PurchaseIn,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("8")})))
	s.Equal("3.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))

	// reduced to 2 would leave -3: rejected, nothing changes
	err = s.svc.ResyncForInvoice(s.ctx, s.invoiceDoc(invoiceID, PurchaseIn,
		InvoiceLine{ItemID: s.item.ID, Quantity: qty("2")}))
	s.True(apperror.HasCode(err, apperror.CodeInsufficientStock))
	s.Equal("3.000", types.FormatQuantity(s.repo.quantity(s.key(s.whA))))
	s.repo.assertConserved(s.T())
}

func (s *StockServiceSuite) TestResyncForInvoice_NoWarehouseSkips() {
	sc := scope.New(id.New(), "u2")
	doc := s.invoiceDoc(id.New(), SalesOut, InvoiceLine{ItemID: s.item.ID, Quantity: qty("1")})
	doc.BranchID = sc.BranchID

	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, doc))
	s.Empty(s.repo.movements)
}

func (s *StockServiceSuite) TestResyncForInvoice_FallsBackToFirstWarehouse() {
	branch := id.New()
	first := s.dir.addWarehouse(branch, "F1", false)
	s.dir.addWarehouse(branch, "F2", false)
	doc := s.invoiceDoc(id.New(), PurchaseIn, InvoiceLine{ItemID: s.item.ID, Quantity: qty("1")})
	doc.BranchID = branch

	s.Require().NoError(s.svc.ResyncForInvoice(s.ctx, doc))
	s.Require().Len(s.repo.movements, 1)
	s.Equal(first.ID, s.repo.movements[0].WarehouseID)
}

func (s *StockServiceSuite) TestVerifyAndRebuild() {
	s.receive(s.whA, "10")
	k := s.key(s.whA)
	drifted := s.repo.snaps[k]
	drifted.Quantity = qty("7")
	s.repo.snaps[k] = drifted

	diffs, err := s.svc.Verify(s.ctx, s.sc.BranchID)
	s.Require().NoError(err)
	s.Require().Len(diffs, 1)
	s.Equal("10", diffs[0].Ledger.String())

	fixed, err := s.svc.Rebuild(s.ctx, s.sc.BranchID)
	s.Require().NoError(err)
	s.Equal(1, fixed)
	s.repo.assertConserved(s.T())

	diffs, err = s.svc.Verify(s.ctx, s.sc.BranchID)
	s.Require().NoError(err)
	s.Empty(diffs)
}

func (s *StockServiceSuite) TestBalances() {
	s.receive(s.whA, "3")

	list, err := s.svc.Balances(s.ctx, s.sc, s.whA.ID)

	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("3.000", types.FormatQuantity(list[0].Quantity))
}

func TestMovementType_Direction(t *testing.T) {
	inbound := []MovementType{PurchaseIn, AdjustmentIn, SalesReturn, TransferIn}
	outbound := []MovementType{SalesOut, PurchaseReturn, AdjustmentOut, TransferOut}

	for _, mt := range inbound {
		require.True(t, mt.IsInbound(), mt)
		require.True(t, mt.Signed(qty("1")).IsPositive(), mt)
	}
	for _, mt := range outbound {
		require.False(t, mt.IsInbound(), mt)
		require.True(t, mt.Signed(qty("1")).IsNegative(), mt)
	}
}

func TestSortKeys_Deterministic(t *testing.T) {
	a := Key{WarehouseID: id.MustParse("00000000-0000-0000-0000-000000000001")}
	b := Key{WarehouseID: id.MustParse("00000000-0000-0000-0000-000000000002")}
	keys := []Key{b, a}

	SortKeys(keys)

	require.Equal(t, []Key{a, b}, keys)
}
