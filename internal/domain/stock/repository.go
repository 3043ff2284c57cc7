package stock

import (
	"context"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/catalog"
)

// Repository persists movements and snapshots. Every method joins the
// transaction carried by ctx.
type Repository interface {
	// LockSnapshots creates missing snapshot rows at zero and locks all rows
	// for update. Keys arrive sorted; rows are locked in that order.
	LockSnapshots(ctx context.Context, keys []Key) (map[Key]*Snapshot, error)

	// SaveSnapshot writes a snapshot's quantity and bumps its version.
	SaveSnapshot(ctx context.Context, s *Snapshot) error

	// InsertMovements appends ledger rows.
	InsertMovements(ctx context.Context, movements []*Movement) error

	// ListInvoiceMovements returns live movements linked to an invoice.
	ListInvoiceMovements(ctx context.Context, branchID, invoiceID id.ID) ([]*Movement, error)

	// SoftDeleteMovements marks movements deleted.
	SoftDeleteMovements(ctx context.Context, ids []id.ID) error

	// ListSnapshots returns live snapshots of a warehouse.
	ListSnapshots(ctx context.Context, branchID, warehouseID id.ID) ([]*Snapshot, error)

	// ListBranchSnapshots returns every live snapshot of a branch.
	ListBranchSnapshots(ctx context.Context, branchID id.ID) ([]*Snapshot, error)

	// SumLiveMovements returns the signed ledger total per key of a branch.
	SumLiveMovements(ctx context.Context, branchID id.ID) ([]LedgerTotal, error)
}

// Directory resolves the catalog rows stock operations reference.
type Directory interface {
	GetItem(ctx context.Context, branchID, itemID id.ID) (*catalog.Item, error)
	FindWarehouse(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error)
	DefaultWarehouse(ctx context.Context, branchID id.ID) (*catalog.Warehouse, error)
}

// CatalogDirectory adapts the catalog service to Directory.
type CatalogDirectory struct {
	Catalog *catalog.Service
}

// GetItem implements Directory.
func (d CatalogDirectory) GetItem(ctx context.Context, branchID, itemID id.ID) (*catalog.Item, error) {
	return d.Catalog.GetItem(ctx, scope.New(branchID, ""), itemID)
}

// FindWarehouse implements Directory.
func (d CatalogDirectory) FindWarehouse(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	return d.Catalog.FindWarehouse(ctx, warehouseID)
}

// DefaultWarehouse implements Directory.
func (d CatalogDirectory) DefaultWarehouse(ctx context.Context, branchID id.ID) (*catalog.Warehouse, error) {
	return d.Catalog.DefaultWarehouse(ctx, branchID)
}
