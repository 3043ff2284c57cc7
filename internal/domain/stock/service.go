package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/event"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/internal/core/types"
	"hesap/internal/domain/catalog"
	"hesap/pkg/logger"
)

// CodeCrossBranchTransfer rejects transfers whose target lives in another branch.
const CodeCrossBranchTransfer = "CROSS_BRANCH_TRANSFER"

// Service records movements and keeps snapshots consistent with them.
//
// Snapshot rows are locked with SELECT ... FOR UPDATE in key order before the
// non-negative check, and the stock table carries CHECK (quantity >= 0), so
// two writers on the same key serialize instead of both passing the check.
type Service struct {
	repo      Repository
	dir       Directory
	txManager tx.Manager
	events    event.Publisher
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, dir Directory, txManager tx.Manager, events event.Publisher) *Service {
	if events == nil {
		events = event.Discard{}
	}
	return &Service{repo: repo, dir: dir, txManager: txManager, events: events}
}

// RecordCommand records a single non-transfer movement.
type RecordCommand struct {
	WarehouseID id.ID
	ItemID      id.ID
	Type        string
	Quantity    string
	Date        *string
	Note        string
	InvoiceID   *id.ID
}

// RecordResult is the written movement and the snapshot quantity after it.
type RecordResult struct {
	Movement         *Movement
	SnapshotQuantity decimal.Decimal
}

// RecordMovement appends a movement and adjusts its snapshot atomically.
func (s *Service) RecordMovement(ctx context.Context, sc scope.Scope, cmd RecordCommand) (*RecordResult, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}

	mt := MovementType(cmd.Type)
	if !mt.IsValid() {
		return nil, apperror.NewFieldValidation("type", "unknown movement type").WithDetail("value", cmd.Type)
	}
	if mt.IsTransfer() {
		return nil, apperror.NewFieldValidation("type", "transfer movements are recorded by the transfer operation")
	}
	qty, err := parsePositiveQuantity(cmd.Quantity)
	if err != nil {
		return nil, err
	}
	date, err := types.ParseOptionalDate("date", cmd.Date, time.Now())
	if err != nil {
		return nil, err
	}

	wh, err := s.ownWarehouse(ctx, sc, cmd.WarehouseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.dir.GetItem(ctx, sc.BranchID, cmd.ItemID); err != nil {
		return nil, err
	}

	key := Key{BranchID: sc.BranchID, WarehouseID: wh.ID, ItemID: cmd.ItemID}
	m := NewMovement(key, mt, qty, date, cmd.Note, sc.UserID)
	m.InvoiceID = cmd.InvoiceID

	var result RecordResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		snaps, err := s.apply(ctx, []*Movement{m}, nil)
		if err != nil {
			return err
		}
		if err := s.repo.InsertMovements(ctx, []*Movement{m}); err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}
		result = RecordResult{Movement: m, SnapshotQuantity: snaps[key].Quantity}

		return s.events.Publish(ctx, event.Event{
			AggregateType: "stock_movement",
			AggregateID:   m.ID,
			BranchID:      sc.BranchID,
			Type:          event.StockMoved,
			UserID:        sc.UserID,
			Payload: map[string]any{
				"warehouseId": wh.ID,
				"itemId":      m.ItemID,
				"type":        m.Type,
				"quantity":    types.FormatQuantity(m.Quantity),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock movement recorded",
		"movement_id", m.ID,
		"branch_id", sc.BranchID,
		"type", m.Type,
		"quantity", types.FormatQuantity(m.Quantity))

	return &result, nil
}

// TransferCommand moves stock between two warehouses of one branch.
type TransferCommand struct {
	SourceWarehouseID id.ID
	TargetWarehouseID id.ID
	ItemID            id.ID
	Quantity          string
	Date              *string
	Note              string
}

// TransferResult identifies both halves of a transfer.
type TransferResult struct {
	TransferID     id.ID
	OutMovementID  id.ID
	InMovementID   id.ID
	SourceQuantity decimal.Decimal
	TargetQuantity decimal.Decimal
	Message        string
}

// Transfer writes a TransferOut at the source and a TransferIn at the target
// sharing a transfer id and note. Both snapshots and both movements commit
// together or not at all.
func (s *Service) Transfer(ctx context.Context, sc scope.Scope, cmd TransferCommand) (*TransferResult, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if cmd.SourceWarehouseID == cmd.TargetWarehouseID {
		return nil, apperror.NewFieldValidation("targetWarehouseId", "must differ from the source warehouse")
	}
	qty, err := parsePositiveQuantity(cmd.Quantity)
	if err != nil {
		return nil, err
	}
	date, err := types.ParseOptionalDate("date", cmd.Date, time.Now())
	if err != nil {
		return nil, err
	}

	src, err := s.ownWarehouse(ctx, sc, cmd.SourceWarehouseID)
	if err != nil {
		return nil, err
	}
	tgt, err := s.dir.FindWarehouse(ctx, cmd.TargetWarehouseID)
	if err != nil {
		return nil, err
	}
	if tgt.BranchID != sc.BranchID {
		return nil, apperror.NewBusinessRule(CodeCrossBranchTransfer,
			"transfers between branches are not supported").
			WithDetail("targetWarehouseId", tgt.ID.String())
	}
	if _, err := s.dir.GetItem(ctx, sc.BranchID, cmd.ItemID); err != nil {
		return nil, err
	}

	note := cmd.Note
	if note == "" {
		note = fmt.Sprintf("Transfer %s -> %s", src.Code, tgt.Code)
	}
	transferID := id.New()
	srcKey := Key{BranchID: sc.BranchID, WarehouseID: src.ID, ItemID: cmd.ItemID}
	tgtKey := Key{BranchID: sc.BranchID, WarehouseID: tgt.ID, ItemID: cmd.ItemID}

	out := NewMovement(srcKey, TransferOut, qty, date, note, sc.UserID)
	in := NewMovement(tgtKey, TransferIn, qty, date, note, sc.UserID)
	out.TransferID = &transferID
	in.TransferID = &transferID

	var result *TransferResult
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		snaps, err := s.apply(ctx, []*Movement{out, in}, nil)
		if err != nil {
			return err
		}
		if err := s.repo.InsertMovements(ctx, []*Movement{out, in}); err != nil {
			return fmt.Errorf("insert transfer movements: %w", err)
		}
		result = &TransferResult{
			TransferID:     transferID,
			OutMovementID:  out.ID,
			InMovementID:   in.ID,
			SourceQuantity: snaps[srcKey].Quantity,
			TargetQuantity: snaps[tgtKey].Quantity,
			Message: fmt.Sprintf("%s transferred from %s to %s",
				types.FormatQuantity(qty), src.Code, tgt.Code),
		}

		return s.events.Publish(ctx, event.Event{
			AggregateType: "stock_transfer",
			AggregateID:   transferID,
			BranchID:      sc.BranchID,
			Type:          event.StockTransferred,
			UserID:        sc.UserID,
			Payload: map[string]any{
				"sourceWarehouseId": src.ID,
				"targetWarehouseId": tgt.ID,
				"itemId":            cmd.ItemID,
				"quantity":          types.FormatQuantity(qty),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock transferred",
		"transfer_id", transferID,
		"branch_id", sc.BranchID,
		"source", src.ID,
		"target", tgt.ID,
		"quantity", types.FormatQuantity(qty))

	return result, nil
}

// InvoiceDocument is the stock-relevant view of an invoice.
type InvoiceDocument struct {
	InvoiceID id.ID
	BranchID  id.ID
	Number    string
	Date      time.Time
	UserID    string

	// MovementType is nil when the invoice type moves no stock.
	MovementType *MovementType

	// Deleted invoices keep no movements.
	Deleted bool

	// Lines holds the live lines whose item is stock-tracked.
	Lines []InvoiceLine
}

// InvoiceLine is one stock-tracked invoice line.
type InvoiceLine struct {
	ItemID   id.ID
	Quantity decimal.Decimal
}

// ResyncForInvoice replaces the invoice's movements with one movement per
// stock-tracked line at the branch's default warehouse. Existing movements
// are soft-deleted and snapshots are adjusted by the net change per key, so
// the non-negative check sees the final quantity. A branch without
// warehouses gets no movements. Runs in the caller's transaction.
func (s *Service) ResyncForInvoice(ctx context.Context, doc InvoiceDocument) error {
	existing, err := s.repo.ListInvoiceMovements(ctx, doc.BranchID, doc.InvoiceID)
	if err != nil {
		return fmt.Errorf("list invoice movements: %w", err)
	}

	var created []*Movement
	if !doc.Deleted && doc.MovementType != nil && len(doc.Lines) > 0 {
		wh, err := s.dir.DefaultWarehouse(ctx, doc.BranchID)
		if err != nil {
			return err
		}
		if wh == nil {
			logger.Debug(ctx, "branch has no warehouse, stock tracking skipped",
				"invoice_id", doc.InvoiceID, "branch_id", doc.BranchID)
		} else {
			note := "Invoice " + doc.Number
			for _, line := range doc.Lines {
				key := Key{BranchID: doc.BranchID, WarehouseID: wh.ID, ItemID: line.ItemID}
				m := NewMovement(key, *doc.MovementType, line.Quantity, doc.Date, note, doc.UserID)
				invoiceID := doc.InvoiceID
				m.InvoiceID = &invoiceID
				created = append(created, m)
			}
		}
	}

	if len(existing) == 0 && len(created) == 0 {
		return nil
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.apply(ctx, created, existing); err != nil {
			return err
		}
		if len(existing) > 0 {
			ids := make([]id.ID, len(existing))
			for i, m := range existing {
				ids[i] = m.ID
			}
			if err := s.repo.SoftDeleteMovements(ctx, ids); err != nil {
				return fmt.Errorf("delete invoice movements: %w", err)
			}
		}
		if len(created) > 0 {
			if err := s.repo.InsertMovements(ctx, created); err != nil {
				return fmt.Errorf("insert invoice movements: %w", err)
			}
		}

		logger.Debug(ctx, "invoice stock resynced",
			"invoice_id", doc.InvoiceID,
			"removed", len(existing),
			"created", len(created))
		return nil
	})
}

// Balances lists the live snapshots of a warehouse visible to the caller.
func (s *Service) Balances(ctx context.Context, sc scope.Scope, warehouseID id.ID) ([]*Snapshot, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if _, err := s.ownWarehouse(ctx, sc, warehouseID); err != nil {
		return nil, err
	}
	return s.repo.ListSnapshots(ctx, sc.BranchID, warehouseID)
}

// Verify compares every snapshot of a branch with its ledger total.
func (s *Service) Verify(ctx context.Context, branchID id.ID) ([]Discrepancy, error) {
	totals, err := s.repo.SumLiveMovements(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	snaps, err := s.repo.ListBranchSnapshots(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return compareLedger(totals, snaps), nil
}

// Rebuild resets every drifted snapshot of a branch to its ledger total and
// returns the number of rows corrected.
func (s *Service) Rebuild(ctx context.Context, branchID id.ID) (int, error) {
	var fixed int
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		diffs, err := s.Verify(ctx, branchID)
		if err != nil {
			return err
		}
		if len(diffs) == 0 {
			return nil
		}

		keys := make([]Key, len(diffs))
		want := make(map[Key]decimal.Decimal, len(diffs))
		for i, d := range diffs {
			if d.Ledger.IsNegative() {
				return apperror.NewBusinessRule("NEGATIVE_LEDGER",
					"ledger total is negative, snapshot cannot be rebuilt").
					WithDetail("itemId", d.Key.ItemID.String()).
					WithDetail("warehouseId", d.Key.WarehouseID.String())
			}
			keys[i] = d.Key
			want[d.Key] = d.Ledger
		}
		SortKeys(keys)

		snaps, err := s.repo.LockSnapshots(ctx, keys)
		if err != nil {
			return fmt.Errorf("lock snapshots: %w", err)
		}
		for _, k := range keys {
			snap := snaps[k]
			snap.Quantity = want[k]
			snap.UpdatedAt = time.Now().UTC()
			if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
		}
		fixed = len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if fixed > 0 {
		logger.Warn(ctx, "stock snapshots rebuilt", "branch_id", branchID, "rows", fixed)
	}
	return fixed, nil
}

// apply locks the snapshots touched by added and removed movements, checks
// that no resulting quantity is negative, then writes the new quantities.
// Nothing is written when any key fails the check.
func (s *Service) apply(ctx context.Context, added, removed []*Movement) (map[Key]*Snapshot, error) {
	deltas := make(map[Key]decimal.Decimal)
	for _, m := range removed {
		deltas[m.Key()] = deltas[m.Key()].Sub(m.SignedQuantity())
	}
	for _, m := range added {
		deltas[m.Key()] = deltas[m.Key()].Add(m.SignedQuantity())
	}

	keys := make([]Key, 0, len(deltas))
	for k := range deltas {
		keys = append(keys, k)
	}
	SortKeys(keys)

	snaps, err := s.repo.LockSnapshots(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("lock snapshots: %w", err)
	}

	next := make(map[Key]decimal.Decimal, len(keys))
	for _, k := range keys {
		snap, ok := snaps[k]
		if !ok {
			return nil, fmt.Errorf("snapshot %v was not locked", k)
		}
		qty := types.AddRound(snap.Quantity, deltas[k], types.ScaleQuantity)
		if qty.IsNegative() {
			return nil, apperror.NewInsufficientStock(
				k.ItemID.String(),
				types.FormatQuantity(deltas[k].Neg()),
				types.FormatQuantity(snap.Quantity),
			).WithDetail("warehouse_id", k.WarehouseID.String())
		}
		next[k] = qty
	}

	now := time.Now().UTC()
	for _, k := range keys {
		if deltas[k].IsZero() {
			continue
		}
		snap := snaps[k]
		snap.Quantity = next[k]
		snap.UpdatedAt = now
		if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}
	return snaps, nil
}

func (s *Service) ownWarehouse(ctx context.Context, sc scope.Scope, warehouseID id.ID) (*catalog.Warehouse, error) {
	wh, err := s.dir.FindWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if !sc.Owns(wh.BranchID) {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return wh, nil
}

func parsePositiveQuantity(s string) (decimal.Decimal, error) {
	qty, err := types.ParseAtScale("quantity", s, types.ScaleQuantity)
	if err != nil {
		return decimal.Zero, err
	}
	if !qty.IsPositive() {
		return decimal.Zero, apperror.NewFieldValidation("quantity", "must be greater than zero")
	}
	return qty, nil
}

func compareLedger(totals []LedgerTotal, snaps []*Snapshot) []Discrepancy {
	ledger := make(map[Key]decimal.Decimal, len(totals))
	for _, t := range totals {
		ledger[t.Key] = t.Quantity
	}

	var out []Discrepancy
	seen := make(map[Key]struct{}, len(snaps))
	for _, snap := range snaps {
		k := snap.Key()
		seen[k] = struct{}{}
		if want := ledger[k]; !want.Equal(snap.Quantity) {
			out = append(out, Discrepancy{Key: k, Snapshot: snap.Quantity, Ledger: want})
		}
	}
	for _, t := range totals {
		if _, ok := seen[t.Key]; !ok && !t.Quantity.IsZero() {
			out = append(out, Discrepancy{Key: t.Key, Snapshot: decimal.Zero, Ledger: t.Quantity})
		}
	}
	return out
}
