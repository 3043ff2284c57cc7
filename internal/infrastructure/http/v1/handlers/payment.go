package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/payment"
	"hesap/internal/infrastructure/http/v1/dto"
)

// PaymentService records payments and keeps linked balances current.
type PaymentService interface {
	Create(ctx context.Context, sc scope.Scope, cmd payment.CreateCommand) (*payment.Payment, error)
	Get(ctx context.Context, sc scope.Scope, paymentID id.ID) (*payment.Payment, error)
	Update(ctx context.Context, sc scope.Scope, paymentID id.ID, cmd payment.UpdateCommand) (*payment.Payment, error)
	Delete(ctx context.Context, sc scope.Scope, paymentID id.ID, rowVersion string) error
}

// PaymentHandler handles /payments endpoints.
type PaymentHandler struct {
	*BaseHandler
	service PaymentService
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service PaymentService) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the payment endpoints on rg.
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

// Create handles POST /payments.
func (h *PaymentHandler) Create(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	p, err := h.service.Create(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromPayment(p))
}

// Get handles GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.Get(c.Request.Context(), h.Scope(c), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromPayment(p))
}

// Update handles PUT /payments/:id.
func (h *PaymentHandler) Update(c *gin.Context) {
	paymentID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdatePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), h.Scope(c), paymentID, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromPayment(p))
}

// Delete handles DELETE /payments/:id?rowVersion=.
func (h *PaymentHandler) Delete(c *gin.Context) {
	paymentID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var q dto.RowVersionRequest
	if !h.BindQuery(c, &q) {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.Scope(c), paymentID, q.RowVersion); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
