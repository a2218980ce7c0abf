package service

import (
	"context"
	"strings"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/events"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// NotificationService stores notifications and announces new ones
type NotificationService struct {
	repo      *repository.NotificationRepository
	publisher *events.InventoryEventPublisher
	logger    *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo *repository.NotificationRepository, publisher *events.InventoryEventPublisher, log *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		logger:    log,
	}
}

// List lists every notification
func (s *NotificationService) List(ctx context.Context) ([]*repository.Notification, error) {
	return s.repo.List(ctx)
}

// ListForUser lists the notifications addressed to a user
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]*repository.Notification, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Notify stores one notification, defaulting a blank title, and publishes it
func (s *NotificationService) Notify(ctx context.Context, n *repository.Notification) error {
	if strings.TrimSpace(n.Title) == "" {
		n.Title = repository.DefaultNotificationTitle
	}
	if strings.TrimSpace(n.Message) == "" {
		return errors.Validation(map[string]string{"message": "is required"})
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publisher.PublishNotificationCreated(ctx, n)
	return nil
}

// NotifyMany stores all notifications in one statement and publishes each
func (s *NotificationService) NotifyMany(ctx context.Context, ns []*repository.Notification) error {
	for _, n := range ns {
		if strings.TrimSpace(n.Title) == "" {
			n.Title = repository.DefaultNotificationTitle
		}
	}
	if err := s.repo.CreateMany(ctx, ns); err != nil {
		return err
	}
	for _, n := range ns {
		s.publisher.PublishNotificationCreated(ctx, n)
	}
	return nil
}

// MarkRead marks a notification read
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}

// Delete deletes a notification
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Exists reports whether an unread notification with the same title,
// product and batch was created at or after since
func (s *NotificationService) Exists(ctx context.Context, title string, productID, batchID *int64, since time.Time) (bool, error) {
	return s.repo.ExistsUnread(ctx, title, productID, batchID, since)
}
