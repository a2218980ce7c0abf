package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// WarehouseHandler handles per-warehouse stock and category endpoints
type WarehouseHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewWarehouseHandler creates a new warehouse handler
func NewWarehouseHandler(svc *service.InventoryService, log *logger.Logger) *WarehouseHandler {
	return &WarehouseHandler{
		service: svc,
		logger:  log,
	}
}

// WarehouseStockRequest adds or removes a product in a warehouse
type WarehouseStockRequest struct {
	WarehouseID int64 `json:"warehouse_id" validate:"required,gt=0"`
	ProductID   int64 `json:"product_id" validate:"required,gt=0"`
	Quantity    int   `json:"quantity"`
}

// CategoryRequest is the body of category create and update
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

// ListProducts lists the products stocked in a warehouse
func (h *WarehouseHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	products, err := h.service.ListWarehouseProducts(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, products)
}

// AddStock adds quantity of a product to a warehouse
func (h *WarehouseHandler) AddStock(w http.ResponseWriter, r *http.Request) {
	var req WarehouseStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	stock, err := h.service.AddWarehouseStock(r.Context(), req.WarehouseID, req.ProductID, req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, stock)
}

// RemoveStock removes a product from a warehouse
func (h *WarehouseHandler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	var req WarehouseStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.RemoveWarehouseStock(r.Context(), req.WarehouseID, req.ProductID); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "product removed from warehouse")
}

// ListCategories lists categories
func (h *WarehouseHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, categories)
}

// CreateCategory creates a category
func (h *WarehouseHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	category := &repository.Category{Name: req.Name, Description: req.Description}
	if err := h.service.CreateCategory(r.Context(), category); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, category)
}

// UpdateCategory updates a category
func (h *WarehouseHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req CategoryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	category := &repository.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.service.UpdateCategory(r.Context(), category); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, category)
}

// DeleteCategory deletes a category
func (h *WarehouseHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "category deleted")
}
