package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
)

type memRepo struct {
	items      map[id.ID]*Item
	defs       map[id.ID]*ExpenseDefinition
	warehouses []*Warehouse
	contacts   map[id.ID]*Contact
}

func newMemRepo() *memRepo {
	return &memRepo{
		items:    map[id.ID]*Item{},
		defs:     map[id.ID]*ExpenseDefinition{},
		contacts: map[id.ID]*Contact{},
	}
}

func (r *memRepo) CreateItem(_ context.Context, item *Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *memRepo) GetItem(_ context.Context, branchID, itemID id.ID) (*Item, error) {
	if it, ok := r.items[itemID]; ok && it.BranchID == branchID {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", itemID)
}

func (r *memRepo) CreateExpenseDefinition(_ context.Context, def *ExpenseDefinition) error {
	r.defs[def.ID] = def
	return nil
}

func (r *memRepo) GetExpenseDefinition(_ context.Context, branchID, defID id.ID) (*ExpenseDefinition, error) {
	if d, ok := r.defs[defID]; ok && d.BranchID == branchID {
		return d, nil
	}
	return nil, apperror.NewNotFound("expense definition", defID)
}

func (r *memRepo) CreateWarehouse(_ context.Context, wh *Warehouse) error {
	for _, w := range r.warehouses {
		if w.BranchID == wh.BranchID && w.Code == wh.Code {
			return apperror.NewDuplicate("warehouse", "code", wh.Code)
		}
	}
	r.warehouses = append(r.warehouses, wh)
	return nil
}

func (r *memRepo) GetWarehouse(ctx context.Context, branchID, warehouseID id.ID) (*Warehouse, error) {
	wh, err := r.FindWarehouse(ctx, warehouseID)
	if err != nil || wh.BranchID != branchID {
		return nil, apperror.NewNotFound("warehouse", warehouseID)
	}
	return wh, nil
}

func (r *memRepo) FindWarehouse(_ context.Context, warehouseID id.ID) (*Warehouse, error) {
	for _, w := range r.warehouses {
		if w.ID == warehouseID {
			return w, nil
		}
	}
	return nil, apperror.NewNotFound("warehouse", warehouseID)
}

func (r *memRepo) ListWarehouses(_ context.Context, branchID id.ID) ([]*Warehouse, error) {
	var out []*Warehouse
	for _, w := range r.warehouses {
		if w.BranchID == branchID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *memRepo) ClearDefault(_ context.Context, branchID id.ID) error {
	for _, w := range r.warehouses {
		if w.BranchID == branchID {
			w.IsDefault = false
		}
	}
	return nil
}

func (r *memRepo) CreateContact(_ context.Context, c *Contact) error {
	r.contacts[c.ID] = c
	return nil
}

func (r *memRepo) GetContact(_ context.Context, branchID, contactID id.ID) (*Contact, error) {
	if c, ok := r.contacts[contactID]; ok && c.BranchID == branchID {
		return c, nil
	}
	return nil, apperror.NewNotFound("contact", contactID)
}

func newService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, tx.Inline{}), repo
}

func TestCreateItem_RequiresBranch(t *testing.T) {
	svc, _ := newService()

	_, err := svc.CreateItem(context.Background(), scope.Scope{}, CreateItemCommand{Code: "A", Name: "A"})

	assert.True(t, apperror.IsUnauthorized(err))
}

func TestCreateItem_Validation(t *testing.T) {
	svc, _ := newService()
	sc := scope.New(id.New(), "u1")

	_, err := svc.CreateItem(context.Background(), sc, CreateItemCommand{Code: " ", Name: "Widget"})
	assert.True(t, apperror.IsValidation(err))

	item, err := svc.CreateItem(context.Background(), sc, CreateItemCommand{Code: "W-1", Name: "Widget", StockTracked: true})
	require.NoError(t, err)
	assert.Equal(t, "pcs", item.Unit)
	assert.Equal(t, sc.BranchID, item.BranchID)
}

func TestGetItem_OtherBranchIsNotFound(t *testing.T) {
	svc, _ := newService()
	owner := scope.New(id.New(), "u1")
	other := scope.New(id.New(), "u2")

	item, err := svc.CreateItem(context.Background(), owner, CreateItemCommand{Code: "W-1", Name: "Widget"})
	require.NoError(t, err)

	_, err = svc.GetItem(context.Background(), other, item.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateWarehouse_DefaultMovesBetweenWarehouses(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	sc := scope.New(id.New(), "u1")

	first, err := svc.CreateWarehouse(ctx, sc, CreateWarehouseCommand{Code: "W1", Name: "Main", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.CreateWarehouse(ctx, sc, CreateWarehouseCommand{Code: "W2", Name: "Annex", IsDefault: true})
	require.NoError(t, err)

	assert.False(t, first.IsDefault)
	assert.True(t, second.IsDefault)

	def, err := svc.DefaultWarehouse(ctx, sc.BranchID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	_, err = svc.CreateWarehouse(ctx, sc, CreateWarehouseCommand{Code: "W1", Name: "Again"})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
	assert.Len(t, repo.warehouses, 2)
}

func TestPickDefault(t *testing.T) {
	older := &Warehouse{Code: "A", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Warehouse{Code: "B", CreatedAt: time.Now()}

	assert.Nil(t, pickDefault(nil))
	assert.Same(t, older, pickDefault([]*Warehouse{older, newer}))

	newer.IsDefault = true
	assert.Same(t, newer, pickDefault([]*Warehouse{older, newer}))
}

func TestDefaultWarehouse_NoneInBranch(t *testing.T) {
	svc, _ := newService()

	wh, err := svc.DefaultWarehouse(context.Background(), id.New())

	require.NoError(t, err)
	assert.Nil(t, wh)
}
