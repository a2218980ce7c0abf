package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/pkg/logger"
)

func newTestConsumer() *Consumer {
	return &Consumer{
		queueName: "test",
		handlers:  make(map[string]MessageHandler),
		logger:    logger.Nop(),
	}
}

func eventBody(t *testing.T, eventType string, data interface{}) []byte {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return body
}

func TestConsumer_Dispatch(t *testing.T) {
	c := newTestConsumer()

	var got UserDeletedEvent
	var correlationID string
	c.RegisterHandler(EventUserDeleted, func(ctx context.Context, event *Event) error {
		correlationID = getCorrelationID(ctx)
		return event.UnmarshalData(&got)
	})

	outcome := c.Dispatch(context.Background(), eventBody(t, EventUserDeleted, UserDeletedEvent{UserID: 4}), false)
	assert.Equal(t, Ack, outcome)
	assert.Equal(t, int64(4), got.UserID)
	assert.Equal(t, "corr-1", correlationID)
}

func TestConsumer_Dispatch_Outcomes(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventUserDeleted, func(ctx context.Context, event *Event) error {
		return errors.New("database down")
	})
	body := eventBody(t, EventUserDeleted, UserDeletedEvent{UserID: 4})

	assert.Equal(t, Requeue, c.Dispatch(context.Background(), body, false))
	assert.Equal(t, Drop, c.Dispatch(context.Background(), body, true))
	assert.Equal(t, Drop, c.Dispatch(context.Background(), []byte("{not json"), false))
	assert.Equal(t, Ack, c.Dispatch(context.Background(), eventBody(t, EventUserCreated, UserCreatedEvent{UserID: 1}), false))
}
