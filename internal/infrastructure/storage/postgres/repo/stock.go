package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/stock"
	"hesap/internal/infrastructure/storage/postgres"
)

const (
	stockTable          = "stock"
	stockMovementsTable = "stock_movements"
)

var (
	snapshotColumns = postgres.ExtractDBColumns[stock.Snapshot]()
	movementColumns = postgres.ExtractDBColumns[stock.Movement]()
)

var inboundTypes = []stock.MovementType{
	stock.PurchaseIn, stock.AdjustmentIn, stock.SalesReturn, stock.TransferIn,
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	base
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{base: newBase(txm)}
}

// seedSnapshotsQuery inserts a zero row for every key that has none yet.
func seedSnapshotsQuery(keys []stock.Key, now time.Time) squirrel.InsertBuilder {
	q := psql.Insert(stockTable).
		Columns("id", "branch_id", "warehouse_id", "item_id", "quantity", "version", "updated_at")
	for _, k := range keys {
		q = q.Values(id.New(), k.BranchID, k.WarehouseID, k.ItemID, 0, 1, now)
	}
	return q.Suffix("ON CONFLICT (branch_id, warehouse_id, item_id) WHERE NOT deletion_mark DO NOTHING")
}

// lockSnapshotsQuery selects the rows of keys FOR UPDATE in lock order.
func lockSnapshotsQuery(keys []stock.Key) squirrel.SelectBuilder {
	match := make(squirrel.Or, 0, len(keys))
	for _, k := range keys {
		match = append(match, squirrel.Eq{
			"branch_id":    k.BranchID,
			"warehouse_id": k.WarehouseID,
			"item_id":      k.ItemID,
		})
	}
	return psql.Select(snapshotColumns...).
		From(stockTable).
		Where(match).
		Where(live).
		OrderBy("warehouse_id", "item_id", "branch_id").
		Suffix("FOR UPDATE")
}

// LockSnapshots implements stock.Repository.
func (r *StockRepo) LockSnapshots(ctx context.Context, keys []stock.Key) (map[stock.Key]*stock.Snapshot, error) {
	out := make(map[stock.Key]*stock.Snapshot, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	if _, err := r.exec(ctx, seedSnapshotsQuery(keys, time.Now().UTC())); err != nil {
		return nil, fmt.Errorf("seed stock snapshots: %w", postgres.TranslateError(err, "stock"))
	}

	var rows []*stock.Snapshot
	if err := r.list(ctx, &rows, lockSnapshotsQuery(keys)); err != nil {
		return nil, fmt.Errorf("lock stock snapshots: %w", err)
	}
	for _, s := range rows {
		out[s.Key()] = s
	}
	if len(out) != len(keys) {
		return nil, fmt.Errorf("lock stock snapshots: locked %d of %d keys", len(out), len(keys))
	}
	return out, nil
}

// SaveSnapshot implements stock.Repository.
func (r *StockRepo) SaveSnapshot(ctx context.Context, s *stock.Snapshot) error {
	sql, args, err := psql.Update(stockTable).
		Set("quantity", s.Quantity).
		Set("updated_at", s.UpdatedAt).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&s.Version); err != nil {
		return fmt.Errorf("save stock snapshot: %w", postgres.TranslateError(err, "stock"))
	}
	return nil
}

// InsertMovements implements stock.Repository.
func (r *StockRepo) InsertMovements(ctx context.Context, movements []*stock.Movement) error {
	rows := make([]any, len(movements))
	for i, m := range movements {
		rows[i] = m
	}
	return r.insertRows(ctx, stockMovementsTable, "stock movement", movementColumns, rows)
}

// ListInvoiceMovements implements stock.Repository.
func (r *StockRepo) ListInvoiceMovements(ctx context.Context, branchID, invoiceID id.ID) ([]*stock.Movement, error) {
	q := psql.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"branch_id": branchID, "invoice_id": invoiceID}).
		Where(live).
		OrderBy("created_at", "id")

	var out []*stock.Movement
	if err := r.list(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list invoice movements: %w", err)
	}
	return out, nil
}

// SoftDeleteMovements implements stock.Repository.
func (r *StockRepo) SoftDeleteMovements(ctx context.Context, ids []id.ID) error {
	if len(ids) == 0 {
		return nil
	}
	q := psql.Update(stockMovementsTable).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"id": ids})
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("soft delete movements: %w", err)
	}
	return nil
}

// ListSnapshots implements stock.Repository.
func (r *StockRepo) ListSnapshots(ctx context.Context, branchID, warehouseID id.ID) ([]*stock.Snapshot, error) {
	q := psql.Select(snapshotColumns...).
		From(stockTable).
		Where(squirrel.Eq{"branch_id": branchID, "warehouse_id": warehouseID}).
		Where(live).
		OrderBy("item_id")

	var out []*stock.Snapshot
	if err := r.list(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list stock snapshots: %w", err)
	}
	return out, nil
}

// ListBranchSnapshots implements stock.Repository.
func (r *StockRepo) ListBranchSnapshots(ctx context.Context, branchID id.ID) ([]*stock.Snapshot, error) {
	q := psql.Select(snapshotColumns...).
		From(stockTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(live).
		OrderBy("warehouse_id", "item_id")

	var out []*stock.Snapshot
	if err := r.list(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list branch snapshots: %w", err)
	}
	return out, nil
}

// sumLiveMovementsQuery totals live movements per key, inbound types positive.
func sumLiveMovementsQuery(branchID id.ID) squirrel.SelectBuilder {
	signed := squirrel.Expr("COALESCE(SUM(CASE WHEN ? THEN quantity ELSE -quantity END), 0) AS quantity",
		squirrel.Eq{"movement_type": inboundTypes})
	return psql.Select("branch_id", "warehouse_id", "item_id").
		Column(signed).
		From(stockMovementsTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(live).
		GroupBy("branch_id", "warehouse_id", "item_id").
		OrderBy("warehouse_id", "item_id")
}

// SumLiveMovements implements stock.Repository.
func (r *StockRepo) SumLiveMovements(ctx context.Context, branchID id.ID) ([]stock.LedgerTotal, error) {
	var out []stock.LedgerTotal
	if err := r.list(ctx, &out, sumLiveMovementsQuery(branchID)); err != nil {
		return nil, fmt.Errorf("sum live movements: %w", err)
	}
	return out, nil
}
