package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// InventoryValue returns the value of stock on hand
func (h *ReportHandler) InventoryValue(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.InventoryValue(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, v)
}

// NearExpiry lists batches expiring inside the alert window
func (h *ReportHandler) NearExpiry(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.NearExpiry(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, batches)
}

// Movements lists movements for ?type=daily|weekly|monthly
func (h *ReportHandler) Movements(w http.ResponseWriter, r *http.Request) {
	movements, err := h.service.Movements(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, movements)
}

// AdminSummary returns the dashboard counters
func (h *ReportHandler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.AdminSummary(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, summary)
}
