package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hesap/internal/core/apperror"
	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/balance"
	"hesap/internal/domain/catalog"
	"hesap/internal/infrastructure/http/v1/dto"
)

// BalanceService reads contact balances and statements.
type BalanceService interface {
	GetCurrentBalance(ctx context.Context, sc scope.Scope, contactID id.ID) (decimal.Decimal, error)
	Statement(ctx context.Context, sc scope.Scope, contactID id.ID, from, to time.Time) (*balance.Statement, error)
}

// ContactLookup resolves the contact printed on a statement.
type ContactLookup interface {
	GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error)
}

// StatementRenderer renders a statement document.
type StatementRenderer interface {
	Render(ctx context.Context, contact *catalog.Contact, st *balance.Statement) ([]byte, error)
}

// ContactHandler handles /contacts balance endpoints.
type ContactHandler struct {
	*BaseHandler
	balances BalanceService
	contacts ContactLookup
	renderer StatementRenderer
}

// NewContactHandler creates a new contact handler. renderer may be nil,
// in which case the PDF endpoint is not mounted.
func NewContactHandler(base *BaseHandler, balances BalanceService, contacts ContactLookup, renderer StatementRenderer) *ContactHandler {
	return &ContactHandler{BaseHandler: base, balances: balances, contacts: contacts, renderer: renderer}
}

// RegisterRoutes mounts the contact endpoints on rg.
func (h *ContactHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/balance", h.Balance)
	rg.GET("/:id/statement", h.Statement)
	if h.renderer != nil {
		rg.GET("/:id/statement.pdf", h.StatementPDF)
	}
}

// Balance handles GET /contacts/:id/balance.
func (h *ContactHandler) Balance(c *gin.Context) {
	contactID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	bal, err := h.balances.GetCurrentBalance(c.Request.Context(), h.Scope(c), contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromContactBalance(contactID, bal))
}

// Statement handles GET /contacts/:id/statement?from=&to=.
func (h *ContactHandler) Statement(c *gin.Context) {
	_, st, ok := h.statement(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromStatement(st))
}

// StatementPDF handles GET /contacts/:id/statement.pdf?from=&to=.
func (h *ContactHandler) StatementPDF(c *gin.Context) {
	contactID, st, ok := h.statement(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	contact, err := h.contacts.GetContact(ctx, h.Scope(c), contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.renderer.Render(ctx, contact, st)
	if err != nil {
		h.HandleError(c, apperror.NewInternal(err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", "statement-"+contact.Code+".pdf"))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *ContactHandler) statement(c *gin.Context) (id.ID, *balance.Statement, bool) {
	contactID, ok := h.PathID(c, "id")
	if !ok {
		return id.Nil(), nil, false
	}
	var q dto.StatementQuery
	if !h.BindQuery(c, &q) {
		return id.Nil(), nil, false
	}
	from, to, err := q.Range()
	if err != nil {
		h.HandleError(c, err)
		return id.Nil(), nil, false
	}

	st, err := h.balances.Statement(c.Request.Context(), h.Scope(c), contactID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return id.Nil(), nil, false
	}
	return contactID, st, true
}
