package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/order"
	"hesap/internal/infrastructure/http/v1/dto"
)

// OrderService runs the order lifecycle.
type OrderService interface {
	Create(ctx context.Context, sc scope.Scope, cmd order.CreateCommand) (*order.Order, error)
	Get(ctx context.Context, sc scope.Scope, orderID id.ID) (*order.Order, error)
	Update(ctx context.Context, sc scope.Scope, orderID id.ID, cmd order.UpdateCommand) (*order.Order, error)
	Delete(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) error
	Approve(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) (*order.Order, error)
	Cancel(ctx context.Context, sc scope.Scope, orderID id.ID, rowVersion string) (*order.Order, error)
	CreateInvoiceFromOrder(ctx context.Context, sc scope.Scope, orderID id.ID) (id.ID, error)
}

// OrderHandler handles /orders endpoints.
type OrderHandler struct {
	*BaseHandler
	service OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service OrderService) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the order endpoints on rg.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/cancel", h.Cancel)
	rg.POST("/:id/invoice", h.CreateInvoice)
}

// Create handles POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromOrder(o))
}

// Get handles GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(c.Request.Context(), h.Scope(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// Update handles PUT /orders/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), h.Scope(c), orderID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// Delete handles DELETE /orders/:id?rowVersion=.
func (h *OrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.RowVersionRequest
	if !h.BindQuery(c, &q) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.Scope(c), orderID, q.RowVersion); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Approve handles POST /orders/:id/approve.
func (h *OrderHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Cancel handles POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *OrderHandler) transition(c *gin.Context, fn func(context.Context, scope.Scope, id.ID, string) (*order.Order, error)) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.RowVersionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := fn(c.Request.Context(), h.Scope(c), orderID, req.RowVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.OrderStatus(o))
}

// CreateInvoice handles POST /orders/:id/invoice.
func (h *OrderHandler) CreateInvoice(c *gin.Context) {
	orderID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	invoiceID, err := h.service.CreateInvoiceFromOrder(c.Request.Context(), h.Scope(c), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.InvoiceFromOrderResponse{InvoiceID: invoiceID.String()})
}
