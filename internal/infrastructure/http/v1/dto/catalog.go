package dto

import (
	"time"

	"hesap/internal/domain/catalog"
)

// CreateItemRequest creates an item.
type CreateItemRequest struct {
	Code         string `json:"code" binding:"required,max=50"`
	Name         string `json:"name" binding:"required,max=200"`
	Unit         string `json:"unit,omitempty" binding:"max=20"`
	StockTracked bool   `json:"stockTracked"`
}

// ToCommand converts the request.
func (r *CreateItemRequest) ToCommand() catalog.CreateItemCommand {
	return catalog.CreateItemCommand{Code: r.Code, Name: r.Name, Unit: r.Unit, StockTracked: r.StockTracked}
}

// CreateExpenseDefinitionRequest creates an expense definition.
type CreateExpenseDefinitionRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"required,max=200"`
	Unit string `json:"unit,omitempty" binding:"max=20"`
}

// ToCommand converts the request.
func (r *CreateExpenseDefinitionRequest) ToCommand() catalog.CreateExpenseDefinitionCommand {
	return catalog.CreateExpenseDefinitionCommand{Code: r.Code, Name: r.Name, Unit: r.Unit}
}

// CreateWarehouseRequest creates a warehouse.
type CreateWarehouseRequest struct {
	Code      string `json:"code" binding:"required,max=50"`
	Name      string `json:"name" binding:"required,max=200"`
	IsDefault bool   `json:"isDefault"`
}

// ToCommand converts the request.
func (r *CreateWarehouseRequest) ToCommand() catalog.CreateWarehouseCommand {
	return catalog.CreateWarehouseCommand{Code: r.Code, Name: r.Name, IsDefault: r.IsDefault}
}

// CreateContactRequest creates a contact.
type CreateContactRequest struct {
	Code      string  `json:"code" binding:"required,max=50"`
	Name      string  `json:"name" binding:"required,max=200"`
	TaxNumber *string `json:"taxNumber,omitempty" binding:"omitempty,max=20"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
}

// ToCommand converts the request.
func (r *CreateContactRequest) ToCommand() catalog.CreateContactCommand {
	return catalog.CreateContactCommand{Code: r.Code, Name: r.Name, TaxNumber: r.TaxNumber, Email: r.Email}
}

// CatalogResponse is the common shape of catalog entries.
type CatalogResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	RowVersion string    `json:"rowVersion"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ItemResponse is an item.
type ItemResponse struct {
	CatalogResponse
	Unit         string `json:"unit"`
	StockTracked bool   `json:"stockTracked"`
}

// FromItem maps an item.
func FromItem(i *catalog.Item) ItemResponse {
	return ItemResponse{
		CatalogResponse: CatalogResponse{
			ID: i.ID.String(), Code: i.Code, Name: i.Name,
			RowVersion: i.RowVersion(), CreatedAt: i.CreatedAt,
		},
		Unit:         i.Unit,
		StockTracked: i.StockTracked,
	}
}

// ExpenseDefinitionResponse is an expense definition.
type ExpenseDefinitionResponse struct {
	CatalogResponse
	Unit string `json:"unit"`
}

// FromExpenseDefinition maps an expense definition.
func FromExpenseDefinition(d *catalog.ExpenseDefinition) ExpenseDefinitionResponse {
	return ExpenseDefinitionResponse{
		CatalogResponse: CatalogResponse{
			ID: d.ID.String(), Code: d.Code, Name: d.Name,
			RowVersion: d.RowVersion(), CreatedAt: d.CreatedAt,
		},
		Unit: d.Unit,
	}
}

// WarehouseResponse is a warehouse.
type WarehouseResponse struct {
	CatalogResponse
	IsDefault bool `json:"isDefault"`
}

// FromWarehouse maps a warehouse.
func FromWarehouse(w *catalog.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		CatalogResponse: CatalogResponse{
			ID: w.ID.String(), Code: w.Code, Name: w.Name,
			RowVersion: w.RowVersion(), CreatedAt: w.CreatedAt,
		},
		IsDefault: w.IsDefault,
	}
}

// ContactResponse is a contact.
type ContactResponse struct {
	CatalogResponse
	TaxNumber *string `json:"taxNumber,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// FromContact maps a contact.
func FromContact(c *catalog.Contact) ContactResponse {
	return ContactResponse{
		CatalogResponse: CatalogResponse{
			ID: c.ID.String(), Code: c.Code, Name: c.Name,
			RowVersion: c.RowVersion(), CreatedAt: c.CreatedAt,
		},
		TaxNumber: c.TaxNumber,
		Email:     c.Email,
	}
}
