package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

type fakeAwaitingOrders struct {
	stale      []models.Order
	listErr    error
	cancelErrs map[uuid.UUID]error
	cutoff     time.Time
	limit      int
	cancelled  []uuid.UUID
	actors     []uuid.UUID
}

func (f *fakeAwaitingOrders) ListAwaitingPaymentBefore(_ context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	f.cutoff = cutoff
	f.limit = limit
	return f.stale, f.listErr
}

func (f *fakeAwaitingOrders) Cancel(_ context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	if err := f.cancelErrs[orderID]; err != nil {
		return nil, err
	}
	f.cancelled = append(f.cancelled, orderID)
	f.actors = append(f.actors, actorID)
	return &models.Order{ID: orderID}, nil
}

func newOrderTTLJob(t *testing.T, orders *fakeAwaitingOrders, window time.Duration) *orderTTLJob {
	t.Helper()
	jobIface, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Orders:        orders,
		PaymentWindow: window,
	})
	if err != nil {
		t.Fatalf("NewOrderTTLJob: %v", err)
	}
	job, ok := jobIface.(*orderTTLJob)
	if !ok {
		t.Fatalf("expected orderTTLJob, got %T", jobIface)
	}
	return job
}

func TestOrderTTLJobCancelsStaleOrdersAsSystem(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()
	orders := &fakeAwaitingOrders{stale: []models.Order{{ID: first, Reference: "CMD-1"}, {ID: second, Reference: "CMD-2"}}}
	job := newOrderTTLJob(t, orders, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultPaymentWindow); !orders.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, orders.cutoff)
	}
	if orders.limit != expiryBatchSize {
		t.Fatalf("expected batch %d, got %d", expiryBatchSize, orders.limit)
	}
	if len(orders.cancelled) != 2 || orders.cancelled[0] != first || orders.cancelled[1] != second {
		t.Fatalf("unexpected cancellations %v", orders.cancelled)
	}
	for _, actor := range orders.actors {
		if actor != uuid.Nil {
			t.Fatalf("expected system actor, got %s", actor)
		}
	}
}

func TestOrderTTLJobSkipsRacesAndAggregatesFailures(t *testing.T) {
	raced, broken, ok := uuid.New(), uuid.New(), uuid.New()
	orders := &fakeAwaitingOrders{
		stale: []models.Order{{ID: raced, Reference: "CMD-R"}, {ID: broken, Reference: "CMD-B"}, {ID: ok, Reference: "CMD-OK"}},
		cancelErrs: map[uuid.UUID]error{
			raced:  pkgerrors.New(pkgerrors.CodeStateConflict, "order moved on"),
			broken: errors.New("db down"),
		},
	}
	job := newOrderTTLJob(t, orders, 48*time.Hour)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !strings.Contains(err.Error(), "CMD-B") || strings.Contains(err.Error(), "CMD-R") {
		t.Fatalf("unexpected error %v", err)
	}
	if len(orders.cancelled) != 1 || orders.cancelled[0] != ok {
		t.Fatalf("expected remaining order to be cancelled, got %v", orders.cancelled)
	}
}

func TestOrderTTLJobPropagatesQueryError(t *testing.T) {
	job := newOrderTTLJob(t, &fakeAwaitingOrders{listErr: errors.New("boom")}, time.Hour)
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
