package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/events"
	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/config"
	"github.com/cbsistema/cbsistema-backend/pkg/database"
	"github.com/cbsistema/cbsistema-backend/pkg/errors"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

// TitlePendingOrder is the title of stale order notifications
const TitlePendingOrder = "Pending order"

// OrderService handles restock orders
type OrderService struct {
	db            *database.DB
	orderRepo     *repository.OrderRepository
	notifications *NotificationService
	publisher     *events.InventoryEventPublisher
	cfg           config.OrdersConfig
	now           func() time.Time
	logger        *logger.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	db *database.DB,
	orderRepo *repository.OrderRepository,
	notifications *NotificationService,
	publisher *events.InventoryEventPublisher,
	cfg config.OrdersConfig,
	log *logger.Logger,
) *OrderService {
	return &OrderService{
		db:            db,
		orderRepo:     orderRepo,
		notifications: notifications,
		publisher:     publisher,
		cfg:           cfg,
		now:           time.Now,
		logger:        log,
	}
}

// SetClock replaces the time source
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// ListOrders lists orders by id
func (s *OrderService) ListOrders(ctx context.Context, f repository.OrderFilter) ([]*repository.Order, error) {
	if f.Status != "" && !slices.Contains(repository.OrderStatuses, f.Status) {
		return nil, invalidStatus()
	}
	return s.orderRepo.List(ctx, f)
}

// CreateOrder creates a pending order
func (s *OrderService) CreateOrder(ctx context.Context, productID, userID int64, quantity int) (*repository.Order, error) {
	if quantity < 1 {
		return nil, errors.Validation(map[string]string{"quantity": "must be greater than 0"})
	}
	o := &repository.Order{
		ProductID: productID,
		UserID:    userID,
		Quantity:  quantity,
	}
	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOrder sets the status and/or the quantity. Any status of the fixed
// set may follow any other.
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, status *string, quantity *int) error {
	if status != nil && !slices.Contains(repository.OrderStatuses, *status) {
		return invalidStatus()
	}
	if quantity != nil && *quantity < 1 {
		return errors.Validation(map[string]string{"quantity": "must be greater than 0"})
	}
	return s.orderRepo.Update(ctx, id, status, quantity)
}

// DeleteOrder deletes an order. When it was the last one and the reset is
// enabled, the id sequence restarts at 1. Reports whether it was reset.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) (bool, error) {
	reset := false
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.Delete(ctx, id); err != nil {
			return err
		}
		if !s.cfg.ResetSequenceWhenEmpty {
			return nil
		}
		remaining, err := s.orderRepo.Count(ctx)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}
		if err := s.orderRepo.ResetSequence(ctx); err != nil {
			return err
		}
		reset = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if reset {
		s.logger.Info().Int64("order_id", id).Msg("last order deleted, id sequence reset")
	}
	s.publisher.PublishOrderDeleted(ctx, id, reset)
	return reset, nil
}

// StaleOrdersResult summarizes a stale order check
type StaleOrdersResult struct {
	Message string `json:"message"`
	Flagged int    `json:"flagged"`
}

// FlagStalePendingOrders writes one notification per pending order older
// than hours. Orders are not changed. hours <= 0 uses the configured default.
func (s *OrderService) FlagStalePendingOrders(ctx context.Context, hours int) (*StaleOrdersResult, error) {
	if hours <= 0 {
		hours = s.cfg.StaleAfterHours
	}

	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)
	orders, err := s.orderRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return &StaleOrdersResult{Message: "No pending orders older than threshold"}, nil
	}

	ns := make([]*repository.Notification, 0, len(orders))
	for _, o := range orders {
		productID := o.ProductID
		ns = append(ns, &repository.Notification{
			Title:     TitlePendingOrder,
			Message:   fmt.Sprintf("Order #%d has been pending for more than %dh without approval", o.ID, hours),
			UserID:    s.cfg.RecipientUserID,
			ProductID: &productID,
		})
	}
	if err := s.notifications.NotifyMany(ctx, ns); err != nil {
		return nil, err
	}

	s.logger.Info().Int("flagged", len(ns)).Int("hours", hours).Msg("stale pending orders flagged")
	return &StaleOrdersResult{
		Message: fmt.Sprintf("Notifications generated for %d pending orders", len(ns)),
		Flagged: len(ns),
	}, nil
}

func invalidStatus() error {
	return errors.Validation(map[string]string{
		"status": "must be one of: pending, approved, rejected, in_transit, received",
	})
}
