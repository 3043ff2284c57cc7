package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/stock"
	"hesap/internal/infrastructure/http/v1/dto"
)

// StockService is the stock ledger engine.
type StockService interface {
	RecordMovement(ctx context.Context, sc scope.Scope, cmd stock.RecordCommand) (*stock.RecordResult, error)
	Transfer(ctx context.Context, sc scope.Scope, cmd stock.TransferCommand) (*stock.TransferResult, error)
	Balances(ctx context.Context, sc scope.Scope, warehouseID id.ID) ([]*stock.Snapshot, error)
	Verify(ctx context.Context, branchID id.ID) ([]stock.Discrepancy, error)
}

// StockHandler handles /stock endpoints.
type StockHandler struct {
	*BaseHandler
	service StockService
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service StockService) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the stock endpoints on rg.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/movements", h.RecordMovement)
	rg.POST("/transfers", h.Transfer)
	rg.GET("/warehouses/:id/balances", h.Balances)
}

// RegisterAdminRoutes mounts the ledger maintenance endpoints. rg must
// already restrict access to administrators.
func (h *StockHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/verify", h.Verify)
}

// RecordMovement handles POST /stock/movements.
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.RecordMovement(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromRecordResult(res))
}

// Transfer handles POST /stock/transfers.
func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.Transfer(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromTransferResult(res))
}

// Balances handles GET /stock/warehouses/:id/balances.
func (h *StockHandler) Balances(c *gin.Context) {
	warehouseID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	snaps, err := h.service.Balances(c.Request.Context(), h.Scope(c), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromSnapshots(warehouseID, snaps))
}

// Verify handles GET /stock/verify for the caller's branch.
func (h *StockHandler) Verify(c *gin.Context) {
	diffs, err := h.service.Verify(c.Request.Context(), h.Scope(c).BranchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromDiscrepancies(diffs))
}
