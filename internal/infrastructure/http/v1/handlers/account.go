package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/account"
	"hesap/internal/infrastructure/http/v1/dto"
)

// AccountService manages cash and bank accounts.
type AccountService interface {
	Create(ctx context.Context, sc scope.Scope, cmd account.CreateCommand) (*account.Account, error)
	Get(ctx context.Context, sc scope.Scope, accountID id.ID) (*account.Account, error)
}

// AccountHandler handles /accounts endpoints.
type AccountHandler struct {
	*BaseHandler
	service AccountService
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service AccountService) *AccountHandler {
	return &AccountHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the account endpoints on rg.
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
}

// Create handles POST /accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	acc, err := h.service.Create(c.Request.Context(), h.Scope(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromAccount(acc))
}

// Get handles GET /accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	acc, err := h.service.Get(c.Request.Context(), h.Scope(c), accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromAccount(acc))
}
