package handler

import (
	"net/http"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/service"
	"github.com/cbsistema/cbsistema-backend/pkg/httputil"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	service *service.NotificationService
	logger  *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(svc *service.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: svc,
		logger:  log,
	}
}

// NotificationRequest is the body of a manual notification
type NotificationRequest struct {
	Title     string `json:"title" validate:"max=100"`
	Message   string `json:"message" validate:"required"`
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	ProductID *int64 `json:"product_id"`
}

// List lists all notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ns, err := h.service.List(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, ns)
}

// Mine lists the current user's notifications
func (h *NotificationHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ns, err := h.service.ListForUser(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.OK(w, ns)
}

// Create creates a notification
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	n := &repository.Notification{
		Title:     req.Title,
		Message:   req.Message,
		UserID:    req.UserID,
		ProductID: req.ProductID,
	}
	if err := h.service.Notify(r.Context(), n); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Created(w, n)
}

// MarkRead marks a notification read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.MarkRead(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "notification marked as read")
}

// Delete deletes a notification
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.IDParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}
	httputil.Message(w, "notification deleted")
}
