package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventBatchReceived       = "inventory.batch.received"
	EventBatchRemoved        = "inventory.batch.removed"
	EventRegisterSubmitted   = "inventory.register.submitted"
	EventNotificationCreated = "inventory.notification.created"
	EventOrderDeleted        = "inventory.order.deleted"

	EventUserCreated     = "user.created"
	EventUserDeleted     = "user.deleted"
	EventUserRoleChanged = "user.role_changed"
)

// Topic exchanges
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeUserEvents      = "user.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// BatchReceivedEvent is published after a batch receipt commits
type BatchReceivedEvent struct {
	BatchID    int64      `json:"batch_id"`
	ProductID  int64      `json:"product_id"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// BatchRemovedEvent is published after a batch removal commits
type BatchRemovedEvent struct {
	BatchID   int64 `json:"batch_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// RegisterSubmittedEvent is published after a daily register submission commits
type RegisterSubmittedEvent struct {
	Date    string                 `json:"date"`
	Entries []RegisterEntrySummary `json:"entries"`
}

// RegisterEntrySummary is the ledger outcome for one product
type RegisterEntrySummary struct {
	ProductID  int64 `json:"product_id"`
	StockFinal int   `json:"stock_final"`
}

// NotificationCreatedEvent is published for every sweep or aging notification
type NotificationCreatedEvent struct {
	NotificationID int64  `json:"notification_id"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	UserID         int64  `json:"user_id"`
	ProductID      *int64 `json:"product_id,omitempty"`
	BatchID        *int64 `json:"batch_id,omitempty"`
}

// OrderDeletedEvent is published when an order is deleted
type OrderDeletedEvent struct {
	OrderID       int64 `json:"order_id"`
	SequenceReset bool  `json:"sequence_reset"`
}

// UserCreatedEvent is published when an account is created
type UserCreatedEvent struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// UserDeletedEvent is published when an account is deleted
type UserDeletedEvent struct {
	UserID int64 `json:"user_id"`
}

// UserRoleChangedEvent is published when an update changes a user's role
type UserRoleChangedEvent struct {
	UserID  int64  `json:"user_id"`
	OldRole string `json:"old_role"`
	NewRole string `json:"new_role"`
}
