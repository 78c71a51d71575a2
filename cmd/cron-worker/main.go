package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/equiptrade/fulfillment-backend/internal/cron"
	"github.com/equiptrade/fulfillment-backend/internal/fulfillment"
	"github.com/equiptrade/fulfillment-backend/pkg/config"
	"github.com/equiptrade/fulfillment-backend/pkg/db"
	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/metrics"
	"github.com/equiptrade/fulfillment-backend/pkg/migrate"
	"github.com/equiptrade/fulfillment-backend/pkg/redis"
)

const (
	serviceKind = "cron-worker"
	lockName    = "cron-worker:%s"
)

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

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
		"once":        *once,
	})

	if err := run(ctx, cfg, logg, *once); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
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

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	comps, err := fulfillment.New(fulfillment.Params{
		DB:      dbClient,
		Billing: cfg.Billing,
		Site:    cfg.Site,
		Logger:  logg,
	})
	if err != nil {
		return fmt.Errorf("wire fulfillment components: %w", err)
	}

	jobs, err := buildJobs(cfg, logg, dbClient, comps)
	if err != nil {
		return fmt.Errorf("build jobs: %w", err)
	}
	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Jobs:       jobs,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	if !once {
		logg.Info(ctx, "starting cron worker")
		return scheduler.Run(ctx)
	}

	results, err := scheduler.RunOnce(ctx)
	for _, res := range results {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"job":         res.Job,
			"duration_ms": res.Duration.Milliseconds(),
			"ok":          res.Err == nil,
		}), "cron job result")
	}
	return err
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+what, err)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockName, env)
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, comps *fulfillment.Components) ([]cron.Job, error) {
	orderTTL, err := cron.NewOrderTTLJob(cron.OrderTTLJobParams{
		Logger:        logg,
		Orders:        comps.Orders,
		PaymentWindow: cfg.Cron.PaymentWindow,
	})
	if err != nil {
		return nil, err
	}
	notificationCleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: comps.NotificationRepo,
		Retention:  cfg.Cron.NotificationRetention,
	})
	if err != nil {
		return nil, err
	}
	outboxRetention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    comps.OutboxRepo,
		RetentionDays: cfg.Cron.OutboxRetentionDays,
		MinAttempts:   cfg.Cron.OutboxRetentionMinAttempt,
	})
	if err != nil {
		return nil, err
	}
	return []cron.Job{orderTTL, notificationCleanup, outboxRetention}, nil
}
