package events

import (
	"context"
	"time"

	"github.com/cbsistema/cbsistema-backend/internal/inventory/repository"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
)

// InventoryEventPublisher publishes inventory events after their
// transactions commit. A nil publisher drops every event.
type InventoryEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewInventoryEventPublisher declares the inventory exchange and returns a
// publisher bound to it
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "cbsistema-api", log)
	if err != nil {
		return nil, err
	}
	return New(publisher, log), nil
}

// New wraps any event publisher
func New(publisher messaging.EventPublisher, log *logger.Logger) *InventoryEventPublisher {
	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishBatchReceived publishes a batch received event
func (p *InventoryEventPublisher) PublishBatchReceived(ctx context.Context, b *repository.Batch) {
	if p == nil {
		return
	}
	data := messaging.BatchReceivedEvent{
		BatchID:    b.ID,
		ProductID:  b.ProductID,
		Quantity:   b.Quantity,
		ExpiryDate: b.ExpiryDate,
	}
	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", b.ID).Msg("failed to publish batch received event")
	}
}

// PublishBatchRemoved publishes a batch removed event
func (p *InventoryEventPublisher) PublishBatchRemoved(ctx context.Context, b *repository.Batch) {
	if p == nil {
		return
	}
	data := messaging.BatchRemovedEvent{
		BatchID:   b.ID,
		ProductID: b.ProductID,
		Quantity:  b.Quantity,
	}
	if err := p.publisher.Publish(ctx, messaging.EventBatchRemoved, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", b.ID).Msg("failed to publish batch removed event")
	}
}

// PublishRegisterSubmitted publishes the ledger outcome of a daily register
func (p *InventoryEventPublisher) PublishRegisterSubmitted(ctx context.Context, date time.Time, entries []*repository.RegisterEntry) {
	if p == nil {
		return
	}
	data := messaging.RegisterSubmittedEvent{
		Date:    date.Format(time.DateOnly),
		Entries: make([]messaging.RegisterEntrySummary, 0, len(entries)),
	}
	for _, e := range entries {
		data.Entries = append(data.Entries, messaging.RegisterEntrySummary{
			ProductID:  e.ProductID,
			StockFinal: e.StockFinal,
		})
	}
	if err := p.publisher.Publish(ctx, messaging.EventRegisterSubmitted, data); err != nil {
		p.logger.Error().Err(err).Int("entries", len(entries)).Msg("failed to publish register submitted event")
	}
}

// PublishNotificationCreated publishes a notification created event
func (p *InventoryEventPublisher) PublishNotificationCreated(ctx context.Context, n *repository.Notification) {
	if p == nil {
		return
	}
	data := messaging.NotificationCreatedEvent{
		NotificationID: n.ID,
		Title:          n.Title,
		Message:        n.Message,
		UserID:         n.UserID,
		ProductID:      n.ProductID,
		BatchID:        n.BatchID,
	}
	if err := p.publisher.Publish(ctx, messaging.EventNotificationCreated, data); err != nil {
		p.logger.Error().Err(err).Int64("notification_id", n.ID).Msg("failed to publish notification created event")
	}
}

// PublishOrderDeleted publishes an order deleted event
func (p *InventoryEventPublisher) PublishOrderDeleted(ctx context.Context, orderID int64, sequenceReset bool) {
	if p == nil {
		return
	}
	data := messaging.OrderDeletedEvent{
		OrderID:       orderID,
		SequenceReset: sequenceReset,
	}
	if err := p.publisher.Publish(ctx, messaging.EventOrderDeleted, data); err != nil {
		p.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to publish order deleted event")
	}
}
