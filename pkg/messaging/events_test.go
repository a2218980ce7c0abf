package messaging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbsistema/cbsistema-backend/pkg/messaging"
)

func TestNewEvent(t *testing.T) {
	event, err := messaging.NewEvent(messaging.EventBatchRemoved, "cbsistema-api", "req-1",
		messaging.BatchRemovedEvent{BatchID: 9, ProductID: 2, Quantity: 15})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "inventory.batch.removed", event.Type)
	assert.Equal(t, "req-1", event.CorrelationID)

	var data messaging.BatchRemovedEvent
	require.NoError(t, event.UnmarshalData(&data))
	assert.Equal(t, int64(9), data.BatchID)
	assert.Equal(t, 15, data.Quantity)
}
