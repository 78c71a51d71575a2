package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	pkgerrors "github.com/equiptrade/fulfillment-backend/pkg/errors"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

const (
	defaultPaymentWindow = 7 * 24 * time.Hour
	expiryBatchSize      = 200
)

// OrderTTLJobParams configure the payment-window expiry job.
type OrderTTLJobParams struct {
	Logger        *logger.Logger
	Orders        awaitingPaymentOrders
	PaymentWindow time.Duration
	BatchSize     int
}

type awaitingPaymentOrders interface {
	ListAwaitingPaymentBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	Cancel(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error)
}

// NewOrderTTLJob builds the job that cancels confirmed orders whose payment
// never arrived within the window.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	window := params.PaymentWindow
	if window <= 0 {
		window = defaultPaymentWindow
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = expiryBatchSize
	}
	return &orderTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		window: window,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	orders awaitingPaymentOrders
	window time.Duration
	batch  int
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "payment-window-expiry" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	stale, err := j.orders.ListAwaitingPaymentBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query orders awaiting payment: %w", err)
	}

	var errs error
	cancelled, skipped := 0, 0
	for _, order := range stale {
		// uuid.Nil marks the cancellation as system initiated.
		if _, err := j.orders.Cancel(ctx, order.ID, uuid.Nil); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				// a payment proof landed between the query and the cancel
				skipped++
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.Reference, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"candidates": len(stale),
		"cancelled":  cancelled,
		"skipped":    skipped,
	})
	j.logg.Info(logCtx, "payment window expiry complete")
	return errs
}
