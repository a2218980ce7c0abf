package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// OrderHandler handles purchase order endpoints
type OrderHandler struct {
	service *service.OrderService
	logger  *logger.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(svc *service.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: svc,
		logger:  log,
	}
}

// CreateOrderRequest is the body of a new order
type CreateOrderRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

// UpdateOrderRequest changes status and/or quantity
type UpdateOrderRequest struct {
	Status   *string `json:"status"`
	Quantity *int    `json:"quantity"`
}

// StaleOrdersRequest overrides the configured age threshold
type StaleOrdersRequest struct {
	HoursThreshold int `json:"hoursThreshold" validate:"gte=0"`
}

// List lists orders, filtered by ?status= and ?product=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.service.ListOrders(r.Context(), repository.OrderFilter{
		Status:  q.Get("status"),
		Product: q.Get("product"),
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, orders)
}

// Create places a pending order for the current user
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), req.ProductID, httputil.GetUserID(r.Context()), req.Quantity)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, order)
}

// Update changes an order's status or quantity
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req UpdateOrderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.UpdateOrder(r.Context(), id, req.Status, req.Quantity); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "order updated")
}

// Delete deletes an order
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	reset, err := h.service.DeleteOrder(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if reset {
		httputil.Message(w, "order deleted, order numbering restarted")
		return
	}
	httputil.Message(w, "order deleted")
}

// FlagStale notifies about pending orders older than the threshold
func (h *OrderHandler) FlagStale(w http.ResponseWriter, r *http.Request) {
	var req StaleOrdersRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}
		if err := httputil.Validate(&req); err != nil {
			httputil.Error(w, err)
			return
		}
	}

	result, err := h.service.FlagStalePendingOrders(r.Context(), req.HoursThreshold)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, result)
}
