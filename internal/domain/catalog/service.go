package catalog

import (
	"context"
	"fmt"
	"strings"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/core/tx"
	"hesap/pkg/logger"
)

// Service provides catalog maintenance and lookups for documents.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// CreateItemCommand describes a new item.
type CreateItemCommand struct {
	Code         string
	Name         string
	Unit         string
	StockTracked bool
}

// CreateItem creates an item in the caller's branch.
func (s *Service) CreateItem(ctx context.Context, sc scope.Scope, cmd CreateItemCommand) (*Item, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if err := validateCodeName(cmd.Code, cmd.Name); err != nil {
		return nil, err
	}

	base, now := newBase(sc.BranchID)
	item := &Item{
		BaseEntity:   base,
		Code:         strings.TrimSpace(cmd.Code),
		Name:         strings.TrimSpace(cmd.Name),
		Unit:         defaultUnit(cmd.Unit),
		StockTracked: cmd.StockTracked,
		CreatedAt:    now,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	logger.Info(ctx, "item created", "item_id", item.ID, "branch_id", sc.BranchID, "code", item.Code)
	return item, nil
}

// GetItem loads an item visible to the caller.
func (s *Service) GetItem(ctx context.Context, sc scope.Scope, itemID id.ID) (*Item, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, sc.BranchID, itemID)
}

// CreateExpenseDefinitionCommand describes a new expense definition.
type CreateExpenseDefinitionCommand struct {
	Code string
	Name string
	Unit string
}

// CreateExpenseDefinition creates an expense definition in the caller's branch.
func (s *Service) CreateExpenseDefinition(ctx context.Context, sc scope.Scope, cmd CreateExpenseDefinitionCommand) (*ExpenseDefinition, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if err := validateCodeName(cmd.Code, cmd.Name); err != nil {
		return nil, err
	}

	base, now := newBase(sc.BranchID)
	def := &ExpenseDefinition{
		BaseEntity: base,
		Code:       strings.TrimSpace(cmd.Code),
		Name:       strings.TrimSpace(cmd.Name),
		Unit:       defaultUnit(cmd.Unit),
		CreatedAt:  now,
	}
	if err := s.repo.CreateExpenseDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("create expense definition: %w", err)
	}
	return def, nil
}

// GetExpenseDefinition loads an expense definition visible to the caller.
func (s *Service) GetExpenseDefinition(ctx context.Context, sc scope.Scope, defID id.ID) (*ExpenseDefinition, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetExpenseDefinition(ctx, sc.BranchID, defID)
}

// CreateWarehouseCommand describes a new warehouse.
type CreateWarehouseCommand struct {
	Code      string
	Name      string
	IsDefault bool
}

// CreateWarehouse creates a warehouse. A new default warehouse clears the
// flag on the branch's other warehouses in the same transaction.
func (s *Service) CreateWarehouse(ctx context.Context, sc scope.Scope, cmd CreateWarehouseCommand) (*Warehouse, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if err := validateCodeName(cmd.Code, cmd.Name); err != nil {
		return nil, err
	}

	base, now := newBase(sc.BranchID)
	wh := &Warehouse{
		BaseEntity: base,
		Code:       strings.TrimSpace(cmd.Code),
		Name:       strings.TrimSpace(cmd.Name),
		IsDefault:  cmd.IsDefault,
		CreatedAt:  now,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if wh.IsDefault {
			if err := s.repo.ClearDefault(ctx, sc.BranchID); err != nil {
				return fmt.Errorf("clear default warehouse: %w", err)
			}
		}
		return s.repo.CreateWarehouse(ctx, wh)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "warehouse created", "warehouse_id", wh.ID, "branch_id", sc.BranchID, "default", wh.IsDefault)
	return wh, nil
}

// GetWarehouse loads a warehouse visible to the caller.
func (s *Service) GetWarehouse(ctx context.Context, sc scope.Scope, warehouseID id.ID) (*Warehouse, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetWarehouse(ctx, sc.BranchID, warehouseID)
}

// FindWarehouse loads a warehouse regardless of branch. Callers must apply
// their own branch rules to the result.
func (s *Service) FindWarehouse(ctx context.Context, warehouseID id.ID) (*Warehouse, error) {
	return s.repo.FindWarehouse(ctx, warehouseID)
}

// DefaultWarehouse resolves the branch's stock warehouse: the first one
// flagged default, else the oldest one. It returns nil when the branch has
// no warehouse.
func (s *Service) DefaultWarehouse(ctx context.Context, branchID id.ID) (*Warehouse, error) {
	list, err := s.repo.ListWarehouses(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return pickDefault(list), nil
}

func pickDefault(list []*Warehouse) *Warehouse {
	for _, wh := range list {
		if wh.IsDefault {
			return wh
		}
	}
	if len(list) > 0 {
		return list[0]
	}
	return nil
}

// CreateContactCommand describes a new contact.
type CreateContactCommand struct {
	Code      string
	Name      string
	TaxNumber *string
	Email     *string
}

// CreateContact creates a contact in the caller's branch.
func (s *Service) CreateContact(ctx context.Context, sc scope.Scope, cmd CreateContactCommand) (*Contact, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	if err := validateCodeName(cmd.Code, cmd.Name); err != nil {
		return nil, err
	}

	base, now := newBase(sc.BranchID)
	c := &Contact{
		BaseEntity: base,
		Code:       strings.TrimSpace(cmd.Code),
		Name:       strings.TrimSpace(cmd.Name),
		TaxNumber:  cmd.TaxNumber,
		Email:      cmd.Email,
		CreatedAt:  now,
	}
	if err := s.repo.CreateContact(ctx, c); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return c, nil
}

// GetContact loads a contact visible to the caller.
func (s *Service) GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*Contact, error) {
	if err := sc.RequireBranch(); err != nil {
		return nil, err
	}
	return s.repo.GetContact(ctx, sc.BranchID, contactID)
}

func defaultUnit(u string) string {
	u = strings.TrimSpace(u)
	if u == "" {
		return "pcs"
	}
	return u
}
