package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// StockHandler handles batch and daily register endpoints
type StockHandler struct {
	service *service.StockService
	loc     *time.Location
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler. Dates in requests are read in loc.
func NewStockHandler(svc *service.StockService, loc *time.Location, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		loc:     loc,
		logger:  log,
	}
}

// BatchRequest is the body of a batch receipt
type BatchRequest struct {
	ProductID   int64            `json:"product_id" validate:"required,gt=0"`
	Quantity    *int             `json:"quantity" validate:"required"`
	ExpiryDate  string           `json:"expiry_date"`
	Cost        *decimal.Decimal `json:"cost"`
	WarehouseID *int64           `json:"warehouse_id"`
}

// ListBatches lists batches, optionally for one product
func (h *StockHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.OptionalInt64Query(r, "product_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if productID != nil {
		batches, err := h.service.ListBatchesByProduct(r.Context(), *productID)
		if err != nil {
			httputil.Error(w, err)
			return
		}
		httputil.OK(w, batches)
		return
	}

	batches, err := h.service.ListBatches(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, batches)
}

// GetBatch gets a batch by ID
func (h *StockHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, batch)
}

// ReceiveBatch records a received batch
func (h *StockHandler) ReceiveBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	expiry, err := parseDate("expiry_date", req.ExpiryDate, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.ReceiveBatch(r.Context(), service.ReceiveBatchInput{
		ProductID:   req.ProductID,
		Quantity:    *req.Quantity,
		ExpiryDate:  expiry,
		Cost:        req.Cost,
		WarehouseID: req.WarehouseID,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, batch)
}

// RemoveBatch deletes a batch and takes its quantity off the product
func (h *StockHandler) RemoveBatch(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.RemoveBatch(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "batch deleted")
}
