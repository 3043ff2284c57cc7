package catalog

import (
	"context"

	"hesap/internal/core/id"
)

// Repository persists catalog rows. Getters filter by branch and return
// NotFound for rows of other branches or soft-deleted rows.
type Repository interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, branchID, itemID id.ID) (*Item, error)

	CreateExpenseDefinition(ctx context.Context, def *ExpenseDefinition) error
	GetExpenseDefinition(ctx context.Context, branchID, defID id.ID) (*ExpenseDefinition, error)

	CreateWarehouse(ctx context.Context, wh *Warehouse) error
	GetWarehouse(ctx context.Context, branchID, warehouseID id.ID) (*Warehouse, error)

	// FindWarehouse loads a live warehouse in any branch.
	FindWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error)

	// ListWarehouses returns live warehouses of a branch, oldest first.
	ListWarehouses(ctx context.Context, branchID id.ID) ([]*Warehouse, error)

	// ClearDefault clears the default flag on all warehouses of a branch.
	ClearDefault(ctx context.Context, branchID id.ID) error

	CreateContact(ctx context.Context, c *Contact) error
	GetContact(ctx context.Context, branchID, contactID id.ID) (*Contact, error)
}
