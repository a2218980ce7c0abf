// Package consumers reacts to events published by other parts of the system.
package consumers

import (
	"context"

	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
)

// QueueUserEvents is the queue the inventory side reads user events from
const QueueUserEvents = "cbsistema.inventory.user-events"

// NotificationCleaner removes the notifications of a user
type NotificationCleaner interface {
	DeleteForUser(ctx context.Context, userID int64) (int64, error)
}

// UserEventConsumer deletes a user's notifications once the account is
// gone. notificaciones.user_id carries no foreign key, so nothing else
// removes them.
type UserEventConsumer struct {
	consumer      *messaging.Consumer
	notifications NotificationCleaner
	logger        *logger.Logger
}

// NewUserEventConsumer binds the user event queue and registers handlers
func NewUserEventConsumer(rmq *messaging.RabbitMQ, notifications NotificationCleaner, log *logger.Logger) (*UserEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, QueueUserEvents, log)
	if err != nil {
		return nil, err
	}
	if err := consumer.Subscribe(messaging.ExchangeUserEvents, messaging.EventUserDeleted); err != nil {
		return nil, err
	}

	c := &UserEventConsumer{
		consumer:      consumer,
		notifications: notifications,
		logger:        log,
	}
	consumer.RegisterHandler(messaging.EventUserDeleted, c.handleUserDeleted)
	return c, nil
}

// Start starts consuming messages
func (c *UserEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *UserEventConsumer) handleUserDeleted(ctx context.Context, event *messaging.Event) error {
	var data messaging.UserDeletedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	n, err := c.notifications.DeleteForUser(ctx, data.UserID)
	if err != nil {
		return err
	}

	c.logger.Info().
		Int64("user_id", data.UserID).
		Int64("deleted", n).
		Msg("notifications of deleted user removed")
	return nil
}
