package consumers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/pkg/logger"
	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
)

type fakeCleaner struct {
	userIDs []int64
	err     error
}

func (f *fakeCleaner) DeleteForUser(ctx context.Context, userID int64) (int64, error) {
	f.userIDs = append(f.userIDs, userID)
	return 2, f.err
}

func TestUserEventConsumer_HandleUserDeleted(t *testing.T) {
	cleaner := &fakeCleaner{}
	c := &UserEventConsumer{notifications: cleaner, logger: logger.Nop()}

	event, err := messaging.NewEvent(messaging.EventUserDeleted, "cbsistema-api", "", messaging.UserDeletedEvent{UserID: 12})
	require.NoError(t, err)

	require.NoError(t, c.handleUserDeleted(context.Background(), event))
	assert.Equal(t, []int64{12}, cleaner.userIDs)
}

func TestUserEventConsumer_HandleUserDeleted_Failure(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("delete user notifications failed")}
	c := &UserEventConsumer{notifications: cleaner, logger: logger.Nop()}

	event, err := messaging.NewEvent(messaging.EventUserDeleted, "cbsistema-api", "", messaging.UserDeletedEvent{UserID: 12})
	require.NoError(t, err)

	assert.Error(t, c.handleUserDeleted(context.Background(), event))
}

func TestUserEventConsumer_HandleUserDeleted_BadPayload(t *testing.T) {
	c := &UserEventConsumer{notifications: &fakeCleaner{}, logger: logger.Nop()}
	event := &messaging.Event{Type: messaging.EventUserDeleted, Data: []byte(`"not an object"`)}

	assert.Error(t, c.handleUserDeleted(context.Background(), event))
}
