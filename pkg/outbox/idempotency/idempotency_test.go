package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	keys   map[string]time.Duration
	failOn error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{keys: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, ttl time.Duration) (bool, error) {
	if m.failOn != nil {
		return false, m.failOn
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "ft:idempotency:" + scope + ":" + id
}

func TestCheckAndMarkProcessedClaimsOnce(t *testing.T) {
	store := newMemoryStore()
	tracker, err := NewTracker(store, 24*time.Hour)
	require.NoError(t, err)
	eventID := uuid.New()

	already, err := tracker.CheckAndMarkProcessed(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	require.False(t, already)

	already, err = tracker.CheckAndMarkProcessed(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	require.True(t, already)

	key := "ft:idempotency:evt:notification-email:" + eventID.String()
	require.Equal(t, 24*time.Hour, store.keys[key])
}

func TestClaimsAreScopedPerConsumer(t *testing.T) {
	tracker, err := NewTracker(newMemoryStore(), time.Hour)
	require.NoError(t, err)
	eventID := uuid.New()

	_, err = tracker.CheckAndMarkProcessed(context.Background(), "notification-email", eventID)
	require.NoError(t, err)
	already, err := tracker.CheckAndMarkProcessed(context.Background(), "order-audit", eventID)
	require.NoError(t, err)
	require.False(t, already)
}

func TestCheckAndMarkProcessedValidatesInput(t *testing.T) {
	store := newMemoryStore()
	tracker, err := NewTracker(store, time.Hour)
	require.NoError(t, err)

	_, err = tracker.CheckAndMarkProcessed(context.Background(), " ", uuid.New())
	require.Error(t, err)
	_, err = tracker.CheckAndMarkProcessed(context.Background(), "notification-email", uuid.Nil)
	require.Error(t, err)

	store.failOn = errors.New("redis down")
	_, err = tracker.CheckAndMarkProcessed(context.Background(), "notification-email", uuid.New())
	require.ErrorContains(t, err, "redis down")
}

func TestNewTrackerRejectsBadConfig(t *testing.T) {
	_, err := NewTracker(nil, time.Hour)
	require.Error(t, err)
	_, err = NewTracker(newMemoryStore(), 0)
	require.Error(t, err)
}
