package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// AuditHandler serves the request log and records mutating requests into it
type AuditHandler struct {
	auditService *service.AuditService
	logger       *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc *service.AuditService, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: svc,
		logger:       log,
	}
}

// List lists log entries
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.auditService.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, entries)
}

// Clear deletes every log entry
func (h *AuditHandler) Clear(w http.ResponseWriter, r *http.Request) {
	n, err := h.auditService.Clear(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, fmt.Sprintf("%d log entries deleted", n))
}

// Record writes one log entry per non-GET request after it completes. It
// must run after authentication so the user is known.
func (h *AuditHandler) Record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		rec := httputil.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)

		action := r.Method + " " + r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				action = r.Method + " " + pattern
			}
		}

		// The request context may already be cancelled once the client has its response.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
		defer cancel()

		userID := httputil.GetUserID(r.Context())
		if err := h.auditService.Record(ctx, userID, action, r.URL.Path, rec.Status()); err != nil {
			h.logger.Warn().Err(err).Str("action", action).Msg("failed to record request log")
		}
	})
}
