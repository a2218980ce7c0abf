package events

import (
	"context"

	"github.com/cbsistema/cbsistema-backend/internal/user/domain"
	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
)

// UserEventPublisher publishes account events. A nil publisher drops every event.
type UserEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewUserEventPublisher declares the user exchange and returns a publisher bound to it
func NewUserEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*UserEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeUserEvents, "cbsistema-api", log)
	if err != nil {
		return nil, err
	}
	return New(publisher, log), nil
}

// New wraps any event publisher
func New(publisher messaging.EventPublisher, log *logger.Logger) *UserEventPublisher {
	return &UserEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishUserCreated publishes a user created event
func (p *UserEventPublisher) PublishUserCreated(ctx context.Context, user *domain.User) {
	if p == nil {
		return
	}
	data := messaging.UserCreatedEvent{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}
	if err := p.publisher.Publish(ctx, messaging.EventUserCreated, data); err != nil {
		p.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to publish user created event")
	}
}

// PublishUserDeleted publishes a user deleted event
func (p *UserEventPublisher) PublishUserDeleted(ctx context.Context, userID int64) {
	if p == nil {
		return
	}
	data := messaging.UserDeletedEvent{UserID: userID}
	if err := p.publisher.Publish(ctx, messaging.EventUserDeleted, data); err != nil {
		p.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to publish user deleted event")
	}
}

// PublishUserRoleChanged publishes a user role changed event
func (p *UserEventPublisher) PublishUserRoleChanged(ctx context.Context, userID int64, oldRole, newRole string) {
	if p == nil {
		return
	}
	data := messaging.UserRoleChangedEvent{
		UserID:  userID,
		OldRole: oldRole,
		NewRole: newRole,
	}
	if err := p.publisher.Publish(ctx, messaging.EventUserRoleChanged, data); err != nil {
		p.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to publish user role changed event")
	}
}
