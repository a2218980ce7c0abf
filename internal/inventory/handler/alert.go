package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// AlertHandler triggers the alert sweep on demand
type AlertHandler struct {
	scanner *service.AlertScanner
	logger  *logger.Logger
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(scanner *service.AlertScanner, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		scanner: scanner,
		logger:  log,
	}
}

// Run runs both sweeps now and returns how many notifications each wrote
func (h *AlertHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.ScanAll(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, result)
}
