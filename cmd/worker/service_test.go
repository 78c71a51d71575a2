package main

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func okPing() pingFunc {
	return func(context.Context) error { return nil }
}

func failingPing(msg string) pingFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func untilCanceled(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestService(t *testing.T, deps []Dependency, consumers ...Consumer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:            logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		Dependencies:      deps,
		Consumers:         consumers,
		HeartbeatInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return svc
}

func TestNewServiceValidatesParams(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard})

	_, err := NewService(ServiceParams{Consumers: []Consumer{{Name: "c", Runner: runFunc(untilCanceled)}}})
	assert.EqualError(t, err, "logger is required")

	_, err = NewService(ServiceParams{Logger: logg})
	assert.EqualError(t, err, "at least one consumer is required")

	_, err = NewService(ServiceParams{
		Logger:       logg,
		Dependencies: []Dependency{{Name: "redis"}},
		Consumers:    []Consumer{{Name: "c", Runner: runFunc(untilCanceled)}},
	})
	assert.EqualError(t, err, "redis client is required")

	_, err = NewService(ServiceParams{Logger: logg, Consumers: []Consumer{{Name: "notification-delivery"}}})
	assert.EqualError(t, err, "notification-delivery consumer is required")
}

func TestRunReportsEveryFailedDependency(t *testing.T) {
	var started atomic.Bool
	svc := newTestService(t,
		[]Dependency{
			{Name: "database", Pinger: okPing()},
			{Name: "redis", Pinger: failingPing("connection refused")},
			{Name: "pubsub", Pinger: failingPing("permission denied")},
		},
		Consumer{Name: "notification-delivery", Runner: runFunc(func(context.Context) error {
			started.Store(true)
			return nil
		})},
	)

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "redis ping failed")
	assert.ErrorContains(t, err, "pubsub ping failed")
	assert.NotContains(t, err.Error(), "database")
	assert.False(t, started.Load())
}

func TestRunStopsSiblingsWhenOneConsumerFails(t *testing.T) {
	boom := errors.New("subscription deleted")
	var siblingStopped atomic.Bool
	svc := newTestService(t, []Dependency{{Name: "database", Pinger: okPing()}},
		Consumer{Name: "notification-delivery", Runner: runFunc(func(context.Context) error { return boom })},
		Consumer{Name: "audit", Runner: runFunc(func(ctx context.Context) error {
			err := untilCanceled(ctx)
			siblingStopped.Store(true)
			return err
		})},
	)

	err := svc.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "notification-delivery consumer")
	assert.True(t, siblingStopped.Load())
}

func TestRunTreatsUnrequestedExitAsFailure(t *testing.T) {
	svc := newTestService(t, nil,
		Consumer{Name: "notification-delivery", Runner: runFunc(func(context.Context) error { return nil })},
	)

	assert.ErrorIs(t, svc.Run(context.Background()), errConsumerExited)
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, []Dependency{{Name: "database", Pinger: okPing()}},
		Consumer{Name: "notification-delivery", Runner: runFunc(untilCanceled)},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.DeadlineExceeded)
}
