package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/enums"
)

func TestDomainEventValidate(t *testing.T) {
	valid := DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	}
	require.NoError(t, valid.validate())

	badType := valid
	badType.EventType = "order_teleported"
	assert.ErrorContains(t, badType.validate(), "unknown outbox event type")

	badAggregate := valid
	badAggregate.AggregateType = "warehouse"
	assert.ErrorContains(t, badAggregate.validate(), "unknown outbox aggregate type")

	noID := valid
	noID.AggregateID = uuid.Nil
	assert.ErrorContains(t, noID.validate(), "requires an aggregate id")
}

func TestDomainEventSealDefaults(t *testing.T) {
	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	env, err := DomainEvent{Data: map[string]string{"status": "confirmed"}}.seal(now)
	require.NoError(t, err)

	assert.Equal(t, envelopeVersion, env.Version)
	assert.Equal(t, now.UTC(), env.OccurredAt)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())
	_, err = uuid.Parse(env.EventID)
	assert.NoError(t, err)
	assert.JSONEq(t, `{"status":"confirmed"}`, string(env.Data))

	occurred := now.Add(-time.Hour)
	env, err = DomainEvent{Version: 2, OccurredAt: occurred, Data: nil}.seal(now)
	require.NoError(t, err)
	assert.Equal(t, 2, env.Version)
	assert.True(t, occurred.Equal(env.OccurredAt))
	assert.Equal(t, json.RawMessage("null"), env.Data)
}

func TestDomainEventSealRejectsUnencodableData(t *testing.T) {
	_, err := DomainEvent{EventType: enums.EventOrderStatusChanged, Data: make(chan int)}.seal(time.Now())
	assert.ErrorContains(t, err, "encode order_status_changed data")
}
