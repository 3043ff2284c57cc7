package repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/id"
	"hesap/internal/domain/catalog"
	"hesap/internal/infrastructure/storage/postgres"
)

const (
	itemsTable              = "items"
	expenseDefinitionsTable = "expense_definitions"
	warehousesTable         = "warehouses"
	contactsTable           = "contacts"
)

var (
	itemColumns              = postgres.ExtractDBColumns[catalog.Item]()
	expenseDefinitionColumns = postgres.ExtractDBColumns[catalog.ExpenseDefinition]()
	warehouseColumns         = postgres.ExtractDBColumns[catalog.Warehouse]()
	contactColumns           = postgres.ExtractDBColumns[catalog.Contact]()
)

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	base
}

var _ catalog.Repository = (*CatalogRepo)(nil)

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txm *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{base: newBase(txm)}
}

// branchRowQuery selects a live row of a branch by id.
func branchRowQuery(table string, columns []string, branchID, rowID id.ID) squirrel.SelectBuilder {
	return psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": rowID, "branch_id": branchID}).
		Where(live)
}

// CreateItem implements catalog.Repository.
func (r *CatalogRepo) CreateItem(ctx context.Context, item *catalog.Item) error {
	return r.insert(ctx, itemsTable, "item", itemColumns, item)
}

// GetItem implements catalog.Repository.
func (r *CatalogRepo) GetItem(ctx context.Context, branchID, itemID id.ID) (*catalog.Item, error) {
	var item catalog.Item
	if err := r.get(ctx, &item, branchRowQuery(itemsTable, itemColumns, branchID, itemID)); err != nil {
		return nil, postgres.NotFoundOr(err, "item", itemID)
	}
	return &item, nil
}

// CreateExpenseDefinition implements catalog.Repository.
func (r *CatalogRepo) CreateExpenseDefinition(ctx context.Context, def *catalog.ExpenseDefinition) error {
	return r.insert(ctx, expenseDefinitionsTable, "expense definition", expenseDefinitionColumns, def)
}

// GetExpenseDefinition implements catalog.Repository.
func (r *CatalogRepo) GetExpenseDefinition(ctx context.Context, branchID, defID id.ID) (*catalog.ExpenseDefinition, error) {
	var def catalog.ExpenseDefinition
	q := branchRowQuery(expenseDefinitionsTable, expenseDefinitionColumns, branchID, defID)
	if err := r.get(ctx, &def, q); err != nil {
		return nil, postgres.NotFoundOr(err, "expense definition", defID)
	}
	return &def, nil
}

// CreateWarehouse implements catalog.Repository.
func (r *CatalogRepo) CreateWarehouse(ctx context.Context, wh *catalog.Warehouse) error {
	return r.insert(ctx, warehousesTable, "warehouse", warehouseColumns, wh)
}

// GetWarehouse implements catalog.Repository.
func (r *CatalogRepo) GetWarehouse(ctx context.Context, branchID, warehouseID id.ID) (*catalog.Warehouse, error) {
	var wh catalog.Warehouse
	q := branchRowQuery(warehousesTable, warehouseColumns, branchID, warehouseID)
	if err := r.get(ctx, &wh, q); err != nil {
		return nil, postgres.NotFoundOr(err, "warehouse", warehouseID)
	}
	return &wh, nil
}

// FindWarehouse implements catalog.Repository.
func (r *CatalogRepo) FindWarehouse(ctx context.Context, warehouseID id.ID) (*catalog.Warehouse, error) {
	var wh catalog.Warehouse
	q := psql.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"id": warehouseID}).
		Where(live)
	if err := r.get(ctx, &wh, q); err != nil {
		return nil, postgres.NotFoundOr(err, "warehouse", warehouseID)
	}
	return &wh, nil
}

// ListWarehouses implements catalog.Repository.
func (r *CatalogRepo) ListWarehouses(ctx context.Context, branchID id.ID) ([]*catalog.Warehouse, error) {
	var list []*catalog.Warehouse
	if err := r.list(ctx, &list, listWarehousesQuery(branchID)); err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return list, nil
}

func listWarehousesQuery(branchID id.ID) squirrel.SelectBuilder {
	return psql.Select(warehouseColumns...).
		From(warehousesTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(live).
		OrderBy("created_at", "id")
}

// ClearDefault implements catalog.Repository.
func (r *CatalogRepo) ClearDefault(ctx context.Context, branchID id.ID) error {
	q := psql.Update(warehousesTable).
		Set("is_default", false).
		Where(squirrel.Eq{"branch_id": branchID, "is_default": true})
	if _, err := r.exec(ctx, q); err != nil {
		return fmt.Errorf("clear default warehouse: %w", err)
	}
	return nil
}

// CreateContact implements catalog.Repository.
func (r *CatalogRepo) CreateContact(ctx context.Context, c *catalog.Contact) error {
	return r.insert(ctx, contactsTable, "contact", contactColumns, c)
}

// GetContact implements catalog.Repository.
func (r *CatalogRepo) GetContact(ctx context.Context, branchID, contactID id.ID) (*catalog.Contact, error) {
	var c catalog.Contact
	if err := r.get(ctx, &c, branchRowQuery(contactsTable, contactColumns, branchID, contactID)); err != nil {
		return nil, postgres.NotFoundOr(err, "contact", contactID)
	}
	return &c, nil
}
