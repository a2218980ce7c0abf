package handler

import (
	"net/http"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// MovementHandler handles stock movement and physical count endpoints
type MovementHandler struct {
	service *service.MovementService
	loc     *time.Location
	logger  *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(svc *service.MovementService, loc *time.Location, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		service: svc,
		loc:     loc,
		logger:  log,
	}
}

// MovementRequest is the body of a movement
type MovementRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Type      string `json:"type" validate:"required"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason" validate:"max=255"`
}

// PhysicalCountRequest is the body of a physical count
type PhysicalCountRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Counted   int    `json:"counted"`
	CountDate string `json:"count_date"`
}

// List lists movements
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.ListMovements(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, movements)
}

// Create records a movement by the current user
func (h *MovementHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	m := &repository.Movement{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	}
	if userID := httputil.GetUserID(r.Context()); userID != 0 {
		m.UserID = &userID
	}

	if err := h.service.CreateMovement(r.Context(), m); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, m)
}

// Delete deletes a movement
func (h *MovementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.DeleteMovement(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "movement deleted")
}

// ListCounts lists physical counts, optionally for one product
func (h *MovementHandler) ListCounts(w http.ResponseWriter, r *http.Request) {
	productID, err := httputil.OptionalInt64Query(r, "product_id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	counts, err := h.service.ListPhysicalCounts(r.Context(), productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, counts)
}

// RecordCount stores a physical count
func (h *MovementHandler) RecordCount(w http.ResponseWriter, r *http.Request) {
	var req PhysicalCountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	date, err := parseDate("count_date", req.CountDate, h.loc)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	id, err := h.service.RecordPhysicalCount(r.Context(), req.ProductID, req.Counted, date)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, map[string]int64{"id": id})
}
