// Package catalog holds the reference data documents point at: stock items,
// expense definitions, warehouses and contacts.
package catalog

import (
	"strings"
	"time"

	"hesap/internal/core/apperror"
	"hesap/internal/core/entity"
	"hesap/internal/core/id"
)

// Item is a sellable or purchasable product.
type Item struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`

	// StockTracked items produce stock movements; services do not.
	StockTracked bool `db:"stock_tracked" json:"stockTracked"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ExpenseDefinition is a cost category booked on Expense invoices.
type ExpenseDefinition struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Warehouse is a stock location inside a branch.
type Warehouse struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// IsDefault marks the warehouse used by invoice-driven stock movements.
	IsDefault bool `db:"is_default" json:"isDefault"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Contact is a customer or supplier.
type Contact struct {
	entity.BaseEntity

	Code      string  `db:"code" json:"code"`
	Name      string  `db:"name" json:"name"`
	TaxNumber *string `db:"tax_number" json:"taxNumber,omitempty"`
	Email     *string `db:"email" json:"email,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Snapshot is the denormalized code/name/unit copied onto document lines.
type Snapshot struct {
	Code string
	Name string
	Unit string
}

// Snapshot captures the item's current labels.
func (i *Item) Snapshot() Snapshot {
	return Snapshot{Code: i.Code, Name: i.Name, Unit: i.Unit}
}

// Snapshot captures the definition's current labels.
func (d *ExpenseDefinition) Snapshot() Snapshot {
	return Snapshot{Code: d.Code, Name: d.Name, Unit: d.Unit}
}

func validateCodeName(code, name string) error {
	if strings.TrimSpace(code) == "" {
		return apperror.NewFieldValidation("code", "is required")
	}
	if len(code) > 50 {
		return apperror.NewFieldValidation("code", "must be at most 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return apperror.NewFieldValidation("name", "is required")
	}
	return nil
}

func newBase(branchID id.ID) (entity.BaseEntity, time.Time) {
	return entity.NewBaseEntity(branchID), time.Now().UTC()
}
