package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/equiptrade/fulfillment-backend/internal/notifications"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/instance"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/mailer"
	"github.com/equiptrade/fulfillment-backend/pkg/metrics"
	"github.com/equiptrade/fulfillment-backend/pkg/migrate"
	"github.com/equiptrade/fulfillment-backend/pkg/outbox/idempotency"
	"github.com/equiptrade/fulfillment-backend/pkg/pubsub"
	"github.com/equiptrade/fulfillment-backend/pkg/redis"
)

const serviceKind = "worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceKind,
		"instance":    instance.GetID(),
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeQuietly(logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, pubsub.Resources{
		Subscriptions: []string{cfg.PubSub.NotificationSubscription},
	}, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeQuietly(logg, "pubsub", pubsubClient.Close)

	tracker, err := idempotency.NewTracker(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency tracker: %w", err)
	}

	sender, err := newSender(ctx, cfg, logg)
	if err != nil {
		return err
	}

	delivery, err := notifications.NewDeliveryConsumer(notifications.DeliveryConsumerParams{
		Subscription: pubsubClient.Subscriber(cfg.PubSub.NotificationSubscription),
		Idempotency:  tracker,
		Sender:       sender,
		Site:         cfg.Site,
		Metrics:      metrics.NewDeliveryMetrics(prometheus.DefaultRegisterer),
		Logger:       logg,
	})
	if err != nil {
		return fmt.Errorf("notification consumer: %w", err)
	}

	service, err := NewService(ServiceParams{
		Logger: logg,
		Dependencies: []Dependency{
			{Name: "database", Pinger: dbClient},
			{Name: "redis", Pinger: redisClient},
			{Name: "pubsub", Pinger: pubsubClient},
		},
		Consumers: []Consumer{
			{Name: "notification-delivery", Runner: delivery},
		},
	})
	if err != nil {
		return fmt.Errorf("worker service: %w", err)
	}

	logg.Info(ctx, "starting worker")
	return service.Run(ctx)
}

// newSender falls back to a no-op mailer outside production when sendgrid is
// not configured.
func newSender(ctx context.Context, cfg *config.Config, logg *logger.Logger) (mailer.Sender, error) {
	client, err := mailer.NewClient(cfg.Sendgrid)
	switch {
	case err == nil:
		return client, nil
	case cfg.App.IsProd():
		return nil, fmt.Errorf("sendgrid client: %w", err)
	default:
		logg.Warn(ctx, "sendgrid not configured, e-mail delivery disabled")
		return mailer.Noop{}, nil
	}
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+what, err)
	}
}
