package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db/models"
	"github.com/equiptrade/fulfillment-backend/pkg/enums"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/metrics"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	// bounds the whole batch: every publish is started before any is awaited
	batchPublishTimeout = 30 * time.Second
	maxBackoff          = 10 * time.Second
	jitterWindow        = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type PublisherParams struct {
	Outbox        config.OutboxConfig
	Logger        *logger.Logger
	DB            dbClient
	PubSub        pubSubClient
	Repository    outboxRepository
	Registry      registryResolver
	DLQRepository dlqRepository
	Metrics       *metrics.OutboxMetrics
	// PublisherFor overrides topic lookup on PubSub; tests use it.
	PublisherFor func(topic string) publisher
}

// Publisher drains outbox_events to Pub/Sub. Rows that can never be published
// are copied to outbox_dlq and marked terminal in the same transaction.
type Publisher struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	pubsub       pubSubClient
	registry     registryResolver
	dlq          dlqRepository
	metrics      *metrics.OutboxMetrics
	publisherFor func(topic string) publisher

	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewPublisher(params PublisherParams) (*Publisher, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	publisherFor := params.PublisherFor
	if publisherFor == nil {
		publisherFor = func(topic string) publisher {
			return wrapGCPPublisher(params.PubSub.Publisher(topic))
		}
	}

	return &Publisher{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		metrics:      params.Metrics,
		publisherFor: publisherFor,
		batchSize:    positiveOr(params.Outbox.BatchSize, defaultBatchSize),
		maxAttempts:  positiveOr(params.Outbox.MaxAttempts, defaultMaxAttempts),
		pollInterval: time.Duration(positiveOr(params.Outbox.PollIntervalMS, defaultPollMs)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is cancelled. Full batches are followed immediately by
// the next one; a failing batch, or one that left rows for retry, backs off
// exponentially so retried rows are spaced out.
func (p *Publisher) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": p.db.Ping, "pubsub": p.pubsub.Ping} {
		if err := ping(ctx); err != nil {
			p.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	delay := backoff{base: p.pollInterval, max: maxBackoff}
	for {
		if err := ctx.Err(); err != nil {
			p.logg.Info(ctx, "outbox publisher context canceled")
			return err
		}

		batch, err := p.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			p.logg.Error(ctx, "outbox publisher batch error", err)
			wait = delay.fail()
		case batch.retried > 0:
			wait = delay.fail()
			p.logg.Info(p.logg.WithFields(ctx, map[string]any{
				"retried": batch.retried,
				"wait_ms": wait.Milliseconds(),
			}), "outbox publisher backing off")
		case batch.fetched > 0:
			delay.reset()
			continue
		default:
			delay.reset()
			wait = withJitter(p.pollInterval)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// batchResult counts the rows a batch fetched and the ones left for retry.
type batchResult struct {
	fetched int
	retried int
}

// inflight is one row of the current batch with its publish started, or the
// error that kept it from starting.
type inflight struct {
	event  models.OutboxEvent
	topic  string
	fields map[string]any
	result publishResult
	err    error
}

func (p *Publisher) processBatch(ctx context.Context) (batchResult, error) {
	var result batchResult
	err := p.db.WithTx(ctx, func(tx *gorm.DB) error {
		result = batchResult{}
		events, err := p.repo.FetchUnpublishedForPublish(tx, p.batchSize, p.maxAttempts)
		if err != nil {
			return err
		}
		result.fetched = len(events)

		publishCtx, cancel := context.WithTimeout(ctx, batchPublishTimeout)
		defer cancel()

		// start everything first so the client can batch per topic
		batch := make([]inflight, 0, len(events))
		for _, event := range events {
			batch = append(batch, p.start(publishCtx, event))
		}
		for _, item := range batch {
			retry, err := p.settle(ctx, publishCtx, tx, item)
			if err != nil {
				return err
			}
			if retry {
				result.retried++
			}
		}
		return nil
	})
	return result, err
}

func (p *Publisher) start(ctx context.Context, event models.OutboxEvent) inflight {
	item := inflight{event: event}
	resolved, err := p.registry.Resolve(event)
	if err != nil {
		item.fields = p.eventFields(event, outbox.PayloadEnvelope{}, "")
		item.err = registry.NewNonRetryableError(fmt.Errorf("resolve: %w", err))
		return item
	}
	item.topic = resolved.Descriptor.Topic
	item.fields = p.eventFields(event, resolved.Envelope, item.topic)

	pub := p.publisherFor(item.topic)
	if pub == nil {
		item.err = registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", item.topic))
		return item
	}
	if item.result = pub.Publish(ctx, message(event, resolved)); item.result == nil {
		item.err = registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", item.topic))
	}
	return item
}

// settle waits for one publish and records the outcome on the row. It reports
// whether the row stays queued for another attempt. Only bookkeeping failures
// are returned; they abort the batch transaction.
func (p *Publisher) settle(ctx, publishCtx context.Context, tx *gorm.DB, item inflight) (bool, error) {
	pubErr := item.err
	if pubErr == nil {
		_, pubErr = item.result.Get(publishCtx)
	}
	event := item.event
	var nonRetryable registry.NonRetryableError

	switch {
	case pubErr == nil:
		if err := p.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return false, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		p.metrics.Observe(string(event.EventType), metrics.OutboxPublished)
		p.logg.Info(p.logg.WithFields(ctx, item.fields), "outbox event published")
		return false, nil

	case errors.As(pubErr, &nonRetryable):
		return false, p.deadLetter(ctx, tx, item, enums.OutboxDLQReasonNonRetryable, pubErr)

	case event.AttemptCount+1 >= p.maxAttempts:
		item.fields["attempt_count"] = event.AttemptCount + 1
		item.fields["terminal_reason"] = "max_attempts"
		return false, p.deadLetter(ctx, tx, item, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", pubErr))

	default:
		item.fields["attempt_count"] = event.AttemptCount + 1
		warnCtx := p.logg.WithField(p.logg.WithFields(ctx, item.fields), "error", pubErr.Error())
		p.logg.Warn(warnCtx, "outbox publish failed")
		if err := p.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
			return false, fmt.Errorf("mark failure %s: %w", event.ID, err)
		}
		p.metrics.Observe(string(event.EventType), metrics.OutboxRetry)
		return true, nil
	}
}

func (p *Publisher) deadLetter(ctx context.Context, tx *gorm.DB, item inflight, reason enums.OutboxDLQErrorReason, cause error) error {
	event := item.event
	item.fields["error_reason"] = reason
	warnCtx := p.logg.WithField(p.logg.WithFields(ctx, item.fields), "error", cause.Error())
	p.logg.Warn(warnCtx, "outbox event will not be retried")

	msg := cause.Error()
	if err := p.dlq.InsertTx(tx, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := p.repo.MarkTerminalTx(tx, event.ID, cause, p.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	p.metrics.Observe(string(event.EventType), metrics.OutboxDeadLettered)
	return nil
}

// message carries the routing metadata as attributes so consumers can filter
// without decoding the payload.
func message(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}

func (p *Publisher) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

// backoff doubles from base up to max on consecutive failures.
type backoff struct {
	base, max, current time.Duration
}

func (b *backoff) fail() time.Duration {
	switch {
	case b.current <= 0:
		b.current = b.base * 2
	default:
		b.current *= 2
	}
	if b.current > b.max {
		b.current = b.max
	}
	return withJitter(b.current)
}

func (b *backoff) reset() { b.current = 0 }

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(jitterWindow)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func wrapGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return gcpPublisher{p}
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.pub.Publish(ctx, msg)
}
