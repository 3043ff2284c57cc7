package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"hesap/internal/core/id"
	"hesap/internal/core/scope"
	"hesap/internal/domain/catalog"
	"hesap/internal/infrastructure/http/v1/dto"
)

// CatalogService maintains the reference data documents point at.
type CatalogService interface {
	CreateItem(ctx context.Context, sc scope.Scope, cmd catalog.CreateItemCommand) (*catalog.Item, error)
	GetItem(ctx context.Context, sc scope.Scope, itemID id.ID) (*catalog.Item, error)
	CreateExpenseDefinition(ctx context.Context, sc scope.Scope, cmd catalog.CreateExpenseDefinitionCommand) (*catalog.ExpenseDefinition, error)
	GetExpenseDefinition(ctx context.Context, sc scope.Scope, defID id.ID) (*catalog.ExpenseDefinition, error)
	CreateWarehouse(ctx context.Context, sc scope.Scope, cmd catalog.CreateWarehouseCommand) (*catalog.Warehouse, error)
	GetWarehouse(ctx context.Context, sc scope.Scope, warehouseID id.ID) (*catalog.Warehouse, error)
	CreateContact(ctx context.Context, sc scope.Scope, cmd catalog.CreateContactCommand) (*catalog.Contact, error)
	GetContact(ctx context.Context, sc scope.Scope, contactID id.ID) (*catalog.Contact, error)
}

// CatalogHandler handles /catalog endpoints.
type CatalogHandler struct {
	*BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service CatalogService) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts the catalog endpoints on rg.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/items", h.CreateItem)
	rg.GET("/items/:id", h.GetItem)
	rg.POST("/expense-definitions", h.CreateExpenseDefinition)
	rg.GET("/expense-definitions/:id", h.GetExpenseDefinition)
	rg.POST("/warehouses", h.CreateWarehouse)
	rg.GET("/warehouses/:id", h.GetWarehouse)
	rg.POST("/contacts", h.CreateContact)
	rg.GET("/contacts/:id", h.GetContact)
}

// CreateItem handles POST /catalog/items.
func (h *CatalogHandler) CreateItem(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.service.CreateItem(c.Request.Context(), h.Scope(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromItem(item))
}

// GetItem handles GET /catalog/items/:id.
func (h *CatalogHandler) GetItem(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), h.Scope(c), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromItem(item))
}

// CreateExpenseDefinition handles POST /catalog/expense-definitions.
func (h *CatalogHandler) CreateExpenseDefinition(c *gin.Context) {
	var req dto.CreateExpenseDefinitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	def, err := h.service.CreateExpenseDefinition(c.Request.Context(), h.Scope(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromExpenseDefinition(def))
}

// GetExpenseDefinition handles GET /catalog/expense-definitions/:id.
func (h *CatalogHandler) GetExpenseDefinition(c *gin.Context) {
	defID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	def, err := h.service.GetExpenseDefinition(c.Request.Context(), h.Scope(c), defID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromExpenseDefinition(def))
}

// CreateWarehouse handles POST /catalog/warehouses.
func (h *CatalogHandler) CreateWarehouse(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	wh, err := h.service.CreateWarehouse(c.Request.Context(), h.Scope(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromWarehouse(wh))
}

// GetWarehouse handles GET /catalog/warehouses/:id.
func (h *CatalogHandler) GetWarehouse(c *gin.Context) {
	whID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	wh, err := h.service.GetWarehouse(c.Request.Context(), h.Scope(c), whID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// CreateContact handles POST /catalog/contacts.
func (h *CatalogHandler) CreateContact(c *gin.Context) {
	var req dto.CreateContactRequest
	if !h.BindJSON(c, &req) {
		return
	}
	contact, err := h.service.CreateContact(c.Request.Context(), h.Scope(c), req.ToCommand())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromContact(contact))
}

// GetContact handles GET /catalog/contacts/:id.
func (h *CatalogHandler) GetContact(c *gin.Context) {
	contactID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	contact, err := h.service.GetContact(c.Request.Context(), h.Scope(c), contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromContact(contact))
}
