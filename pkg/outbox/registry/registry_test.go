package registry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/payloads"
)

var testTopics = config.PubSubConfig{OrdersTopic: "orders-topic", NotificationTopic: "notification-topic"}

func row(t *testing.T, eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{EventType: eventType, AggregateType: aggregate, AggregateID: uuid.New(), Payload: payload}
}

func TestResolveRoutesByEventType(t *testing.T) {
	reg, err := NewEventRegistry(testTopics)
	require.NoError(t, err)

	orderID := uuid.New()
	transition := row(t, enums.EventOrderStatusChanged, enums.AggregateOrder, payloads.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    enums.OrderStatusPendingConfirmation,
		To:      enums.OrderStatusConfirmed,
	})
	resolved, err := reg.Resolve(transition)
	require.NoError(t, err)
	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	payload, ok := resolved.Payload.(*payloads.OrderStatusChangedEvent)
	require.True(t, ok, "payload is %T", resolved.Payload)
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, enums.OrderStatusConfirmed, payload.To)

	email := row(t, enums.EventNotificationRequested, enums.AggregateNotification, payloads.NotificationRequestedEvent{
		Email:   "buyer@example.com",
		Subject: "[EquipTrade] Order confirmed",
	})
	resolved, err = reg.Resolve(email)
	require.NoError(t, err)
	assert.Equal(t, "notification-topic", resolved.Descriptor.Topic)
	assert.IsType(t, &payloads.NotificationRequestedEvent{}, resolved.Payload)
}

func TestResolveRejectsMalformedRows(t *testing.T) {
	reg, err := NewEventRegistry(testTopics)
	require.NoError(t, err)

	valid := func() models.OutboxEvent {
		return row(t, enums.EventOrderStatusChanged, enums.AggregateOrder, map[string]any{})
	}
	tests := map[string]func(*models.OutboxEvent){
		"unknown event":        func(e *models.OutboxEvent) { e.EventType = "order_archived" },
		"aggregate mismatch":   func(e *models.OutboxEvent) { e.AggregateType = enums.AggregateRefund },
		"missing aggregate id": func(e *models.OutboxEvent) { e.AggregateID = uuid.Nil },
		"null data":            func(e *models.OutboxEvent) { *e = row(t, e.EventType, e.AggregateType, nil) },
		"broken envelope":      func(e *models.OutboxEvent) { e.Payload = json.RawMessage(`{"data":`) },
		"bad event id":         func(e *models.OutboxEvent) { e.Payload = json.RawMessage(`{"version":1,"eventId":"not-a-uuid","data":{}}`) },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			event := valid()
			mutate(&event)

			_, err := reg.Resolve(event)
			require.Error(t, err)
			assert.ErrorAs(t, err, new(NonRetryableError))
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"})
	assert.EqualError(t, err, "orders topic is required")

	_, err = NewEventRegistry(config.PubSubConfig{OrdersTopic: "o", NotificationTopic: "  "})
	assert.EqualError(t, err, "notification topic is required")
}

func TestTopics(t *testing.T) {
	reg, err := NewEventRegistry(testTopics)
	require.NoError(t, err)
	assert.Equal(t, []string{"notification-topic", "orders-topic"}, reg.Topics())

	shared, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "shared", NotificationTopic: "shared"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, shared.Topics())
}

func TestNonRetryableErrorMessage(t *testing.T) {
	assert.Equal(t, "non-retryable error", NonRetryableError{}.Error())
	assert.EqualError(t, reject("missing %s", "aggregate_id"), "missing aggregate_id")
}
