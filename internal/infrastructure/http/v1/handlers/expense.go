package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/expense"
	"hesap/internal/infrastructure/http/v1/dto"
)

// ExpenseService runs the expense list workflow.
type ExpenseService interface {
	Create(ctx context.Context, sc scope.Scope, cmd expense.CreateCommand) (*expense.List, error)
	Get(ctx context.Context, sc scope.Scope, listID id.ID) (*expense.List, error)
	UpdateLines(ctx context.Context, sc scope.Scope, listID id.ID, rowVersion string, inputs []expense.LineInput) (*expense.List, error)
	Review(ctx context.Context, sc scope.Scope, listID id.ID, rowVersion string) (*expense.List, error)
	PostToBill(ctx context.Context, sc scope.Scope, cmd expense.PostCommand) (*expense.PostResult, error)
}

// ExpenseHandler handles /expense-lists endpoints.
type ExpenseHandler struct {
	*BaseHandler
	service ExpenseService
}

// NewExpenseHandler creates a new expense list handler.
func NewExpenseHandler(base *BaseHandler, service ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the expense list endpoints on rg.
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/lines", h.UpdateLines)
	rg.POST("/:id/review", h.Review)
	rg.POST("/:id/post", h.Post)
}

// Create handles POST /expense-lists.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseListRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	list, err := h.service.Create(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromExpenseList(list))
}

// Get handles GET /expense-lists/:id.
func (h *ExpenseHandler) Get(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.Get(c.Request.Context(), h.Scope(c), listID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromExpenseList(list))
}

// UpdateLines handles PUT /expense-lists/:id/lines.
func (h *ExpenseHandler) UpdateLines(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateExpenseLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inputs, err := req.Inputs()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	list, err := h.service.UpdateLines(c.Request.Context(), h.Scope(c), listID, req.RowVersion, inputs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromExpenseList(list))
}

// Review handles POST /expense-lists/:id/review.
func (h *ExpenseHandler) Review(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.RowVersionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	list, err := h.service.Review(c.Request.Context(), h.Scope(c), listID, req.RowVersion)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.ExpenseListStatus(list))
}

// Post handles POST /expense-lists/:id/post.
func (h *ExpenseHandler) Post(c *gin.Context) {
	listID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.PostExpenseListRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cmd, err := req.ToCommand(listID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := h.service.PostToBill(c.Request.Context(), h.Scope(c), cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromPostResult(res))
}
