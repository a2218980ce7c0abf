package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	service *service.InventoryService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.InventoryService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// ProductRequest is the body of product create and update
type ProductRequest struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Quantity     int             `json:"quantity"`
	Packs        int             `json:"packs" validate:"gte=0"`
	UnitsPerPack int             `json:"units_per_pack" validate:"gte=0"`
	Threshold    int             `json:"threshold"`
	Supplier     string          `json:"supplier" validate:"max=100"`
	Cost         decimal.Decimal `json:"cost"`
	CategoryID   *int64          `json:"category_id"`
	WarehouseID  *int64          `json:"warehouse_id"`
}

func (req *ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:         req.Name,
		Quantity:     req.Quantity,
		Packs:        req.Packs,
		UnitsPerPack: req.UnitsPerPack,
		Threshold:    req.Threshold,
		Supplier:     req.Supplier,
		Cost:         req.Cost,
		CategoryID:   req.CategoryID,
		WarehouseID:  req.WarehouseID,
	}
}

// List lists all products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, products)
}

// Search finds products by name
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.SearchProducts(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, products)
}

// Get gets a product by ID
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, product)
}

// Create creates a product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), req.input())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, product)
}

// Update replaces a product's fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, req.input())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, product)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "product deleted")
}
