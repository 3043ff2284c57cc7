// Package stock is the stock ledger: append-only movements plus a per
// (branch, warehouse, item) quantity snapshot kept equal to the signed sum of
// the live movements.
package stock

import (
	"bytes"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hesap/internal/core/entity"
	"hesap/internal/core/id"
	"hesap/internal/core/types"
)

// MovementType determines the direction of a movement.
type MovementType string

const (
	PurchaseIn     MovementType = "PurchaseIn"
	SalesOut       MovementType = "SalesOut"
	SalesReturn    MovementType = "SalesReturn"
	PurchaseReturn MovementType = "PurchaseReturn"
	AdjustmentIn   MovementType = "AdjustmentIn"
	AdjustmentOut  MovementType = "AdjustmentOut"
	TransferIn     MovementType = "TransferIn"
	TransferOut    MovementType = "TransferOut"
)

// IsValid reports whether t is a known movement type.
func (t MovementType) IsValid() bool {
	switch t {
	case PurchaseIn, SalesOut, SalesReturn, PurchaseReturn,
		AdjustmentIn, AdjustmentOut, TransferIn, TransferOut:
		return true
	}
	return false
}

// IsInbound reports whether the movement adds to stock.
func (t MovementType) IsInbound() bool {
	switch t {
	case PurchaseIn, AdjustmentIn, SalesReturn, TransferIn:
		return true
	}
	return false
}

// IsTransfer reports whether t is one half of a transfer.
func (t MovementType) IsTransfer() bool {
	return t == TransferIn || t == TransferOut
}

// Signed applies the movement direction to a positive quantity.
func (t MovementType) Signed(qty decimal.Decimal) decimal.Decimal {
	if t.IsInbound() {
		return qty
	}
	return qty.Neg()
}

// Key identifies a stock snapshot row.
type Key struct {
	BranchID    id.ID `db:"branch_id" json:"branchId"`
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	ItemID      id.ID `db:"item_id" json:"itemId"`
}

// Less orders keys so concurrent writers lock snapshot rows in the same order.
func (k Key) Less(o Key) bool {
	if c := bytes.Compare(k.WarehouseID[:], o.WarehouseID[:]); c != 0 {
		return c < 0
	}
	if c := bytes.Compare(k.ItemID[:], o.ItemID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.BranchID[:], o.BranchID[:]) < 0
}

// SortKeys sorts keys in lock order.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}

// Movement is an append-only ledger row. Quantity is always positive.
type Movement struct {
	entity.BaseEntity

	WarehouseID id.ID           `db:"warehouse_id" json:"warehouseId"`
	ItemID      id.ID           `db:"item_id" json:"itemId"`
	Type        MovementType    `db:"movement_type" json:"type"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Date        time.Time       `db:"transaction_date" json:"date"`
	Note        string          `db:"note" json:"note"`

	// InvoiceID links movements created by invoice resync.
	InvoiceID *id.ID `db:"invoice_id" json:"invoiceId,omitempty"`

	// TransferID pairs the two halves of a transfer.
	TransferID *id.ID `db:"transfer_id" json:"transferId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
}

// NewMovement builds a movement with a fresh id.
func NewMovement(key Key, t MovementType, qty decimal.Decimal, date time.Time, note, userID string) *Movement {
	return &Movement{
		BaseEntity:  entity.NewBaseEntity(key.BranchID),
		WarehouseID: key.WarehouseID,
		ItemID:      key.ItemID,
		Type:        t,
		Quantity:    types.RoundAtScale(qty, types.ScaleQuantity),
		Date:        date.UTC(),
		Note:        note,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   userID,
	}
}

// Key returns the snapshot key the movement affects.
func (m *Movement) Key() Key {
	return Key{BranchID: m.BranchID, WarehouseID: m.WarehouseID, ItemID: m.ItemID}
}

// SignedQuantity is the movement's effect on the snapshot.
func (m *Movement) SignedQuantity() decimal.Decimal {
	return m.Type.Signed(m.Quantity)
}

// Snapshot is the current quantity of an item in a warehouse.
type Snapshot struct {
	entity.BaseEntity

	WarehouseID id.ID           `db:"warehouse_id" json:"warehouseId"`
	ItemID      id.ID           `db:"item_id" json:"itemId"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// Key returns the snapshot key.
func (s *Snapshot) Key() Key {
	return Key{BranchID: s.BranchID, WarehouseID: s.WarehouseID, ItemID: s.ItemID}
}

// LedgerTotal is the signed sum of live movements for a key.
type LedgerTotal struct {
	Key
	Quantity decimal.Decimal `db:"quantity"`
}

// Discrepancy is a snapshot that disagrees with its ledger.
type Discrepancy struct {
	Key      Key             `json:"key"`
	Snapshot decimal.Decimal `json:"snapshot"`
	Ledger   decimal.Decimal `json:"ledger"`
}
