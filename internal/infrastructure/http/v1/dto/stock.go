package dto

import (
	"time"

	"hesap/internal/core/id"
	"hesap/internal/core/types"
	"hesap/internal/domain/stock"
)

// RecordMovementRequest records a manual stock movement.
type RecordMovementRequest struct {
	WarehouseID string  `json:"warehouseId" binding:"required"`
	ItemID      string  `json:"itemId" binding:"required"`
	Type        string  `json:"type" binding:"required"`
	Quantity    string  `json:"quantity" binding:"required,decimal=3"`
	Date        *string `json:"date,omitempty"`
	Note        string  `json:"note,omitempty" binding:"max=500"`
}

// ToCommand converts the request.
func (r *RecordMovementRequest) ToCommand() (stock.RecordCommand, error) {
	warehouseID, err := id.ParseField("warehouseId", r.WarehouseID)
	if err != nil {
		return stock.RecordCommand{}, err
	}
	itemID, err := id.ParseField("itemId", r.ItemID)
	if err != nil {
		return stock.RecordCommand{}, err
	}
	return stock.RecordCommand{
		WarehouseID: warehouseID,
		ItemID:      itemID,
		Type:        r.Type,
		Quantity:    r.Quantity,
		Date:        r.Date,
		Note:        r.Note,
	}, nil
}

// TransferRequest moves stock between two warehouses of the branch.
type TransferRequest struct {
	SourceWarehouseID string  `json:"sourceWarehouseId" binding:"required"`
	TargetWarehouseID string  `json:"targetWarehouseId" binding:"required"`
	ItemID            string  `json:"itemId" binding:"required"`
	Quantity          string  `json:"quantity" binding:"required,decimal=3"`
	Date              *string `json:"date,omitempty"`
	Note              string  `json:"note,omitempty" binding:"max=500"`
}

// ToCommand converts the request.
func (r *TransferRequest) ToCommand() (stock.TransferCommand, error) {
	source, err := id.ParseField("sourceWarehouseId", r.SourceWarehouseID)
	if err != nil {
		return stock.TransferCommand{}, err
	}
	target, err := id.ParseField("targetWarehouseId", r.TargetWarehouseID)
	if err != nil {
		return stock.TransferCommand{}, err
	}
	itemID, err := id.ParseField("itemId", r.ItemID)
	if err != nil {
		return stock.TransferCommand{}, err
	}
	return stock.TransferCommand{
		SourceWarehouseID: source,
		TargetWarehouseID: target,
		ItemID:            itemID,
		Quantity:          r.Quantity,
		Date:              r.Date,
		Note:              r.Note,
	}, nil
}

// MovementResponse is a written movement with the resulting snapshot quantity.
type MovementResponse struct {
	ID               string    `json:"id"`
	WarehouseID      string    `json:"warehouseId"`
	ItemID           string    `json:"itemId"`
	Type             string    `json:"type"`
	Quantity         string    `json:"quantity"`
	Date             time.Time `json:"date"`
	Note             string    `json:"note,omitempty"`
	SnapshotQuantity string    `json:"snapshotQuantity"`
}

// FromRecordResult maps a recorded movement.
func FromRecordResult(r *stock.RecordResult) MovementResponse {
	m := r.Movement
	return MovementResponse{
		ID:               m.ID.String(),
		WarehouseID:      m.WarehouseID.String(),
		ItemID:           m.ItemID.String(),
		Type:             string(m.Type),
		Quantity:         types.FormatQuantity(m.Quantity),
		Date:             m.Date,
		Note:             m.Note,
		SnapshotQuantity: types.FormatQuantity(r.SnapshotQuantity),
	}
}

// TransferResponse identifies both halves of a transfer.
type TransferResponse struct {
	Success        bool   `json:"success"`
	TransferID     string `json:"transferId"`
	OutMovementID  string `json:"outMovementId"`
	InMovementID   string `json:"inMovementId"`
	SourceQuantity string `json:"sourceQuantity"`
	TargetQuantity string `json:"targetQuantity"`
	Message        string `json:"message"`
}

// FromTransferResult maps a transfer.
func FromTransferResult(r *stock.TransferResult) TransferResponse {
	return TransferResponse{
		Success:        true,
		TransferID:     r.TransferID.String(),
		OutMovementID:  r.OutMovementID.String(),
		InMovementID:   r.InMovementID.String(),
		SourceQuantity: types.FormatQuantity(r.SourceQuantity),
		TargetQuantity: types.FormatQuantity(r.TargetQuantity),
		Message:        r.Message,
	}
}

// StockBalanceResponse is one snapshot row.
type StockBalanceResponse struct {
	ItemID    string    `json:"itemId"`
	Quantity  string    `json:"quantity"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WarehouseBalancesResponse lists the snapshots of a warehouse.
type WarehouseBalancesResponse struct {
	WarehouseID string                 `json:"warehouseId"`
	Items       []StockBalanceResponse `json:"items"`
}

// FromSnapshots maps the snapshots of a warehouse.
func FromSnapshots(warehouseID id.ID, snaps []*stock.Snapshot) WarehouseBalancesResponse {
	items := make([]StockBalanceResponse, len(snaps))
	for i, s := range snaps {
		items[i] = StockBalanceResponse{
			ItemID:    s.ItemID.String(),
			Quantity:  types.FormatQuantity(s.Quantity),
			UpdatedAt: s.UpdatedAt,
		}
	}
	return WarehouseBalancesResponse{WarehouseID: warehouseID.String(), Items: items}
}

// DiscrepancyResponse is a snapshot that differs from its ledger total.
type DiscrepancyResponse struct {
	WarehouseID string `json:"warehouseId"`
	ItemID      string `json:"itemId"`
	Snapshot    string `json:"snapshot"`
	Ledger      string `json:"ledger"`
}

// StockVerifyResponse is the result of a conservation check.
type StockVerifyResponse struct {
	Consistent    bool                  `json:"consistent"`
	Discrepancies []DiscrepancyResponse `json:"discrepancies"`
}

// FromDiscrepancies maps a conservation check.
func FromDiscrepancies(diffs []stock.Discrepancy) StockVerifyResponse {
	out := StockVerifyResponse{
		Consistent:    len(diffs) == 0,
		Discrepancies: make([]DiscrepancyResponse, len(diffs)),
	}
	for i, d := range diffs {
		out.Discrepancies[i] = DiscrepancyResponse{
			WarehouseID: d.Key.WarehouseID.String(),
			ItemID:      d.Key.ItemID.String(),
			Snapshot:    types.FormatQuantity(d.Snapshot),
			Ledger:      types.FormatQuantity(d.Ledger),
		}
	}
	return out
}
