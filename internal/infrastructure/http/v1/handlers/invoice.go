package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/invoice"
	"hesap/internal/infrastructure/http/v1/dto"
)

// InvoiceService is the invoice aggregate engine.
type InvoiceService interface {
	Create(ctx context.Context, sc scope.Scope, cmd invoice.CreateCommand) (*invoice.Invoice, error)
	Get(ctx context.Context, sc scope.Scope, invoiceID id.ID) (*invoice.Invoice, error)
	UpdateHeader(ctx context.Context, sc scope.Scope, invoiceID id.ID, cmd invoice.UpdateHeaderCommand) (*invoice.Invoice, error)
	UpdateLines(ctx context.Context, sc scope.Scope, invoiceID id.ID, cmd invoice.UpdateLinesCommand) (*invoice.Invoice, error)
	Delete(ctx context.Context, sc scope.Scope, invoiceID id.ID, rowVersion string) error
}

// InvoiceHandler handles /invoices endpoints.
type InvoiceHandler struct {
	*BaseHandler
	service InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the invoice endpoints on rg.
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.UpdateHeader)
	rg.PUT("/:id/lines", h.UpdateLines)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	inv, err := h.service.Create(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromCreatedInvoice(inv))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	inv, err := h.service.Get(c.Request.Context(), h.Scope(c), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// UpdateHeader handles PUT /invoices/:id.
func (h *InvoiceHandler) UpdateHeader(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceHeaderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	inv, err := h.service.UpdateHeader(c.Request.Context(), h.Scope(c), invoiceID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// UpdateLines handles PUT /invoices/:id/lines.
func (h *InvoiceHandler) UpdateLines(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateInvoiceLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	inv, err := h.service.UpdateLines(c.Request.Context(), h.Scope(c), invoiceID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromInvoice(inv))
}

// Delete handles DELETE /invoices/:id?rowVersion=.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoiceID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.RowVersionRequest
	if !h.BindQuery(c, &q) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.Scope(c), invoiceID, q.RowVersion); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
