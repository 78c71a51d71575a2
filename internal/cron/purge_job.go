package cron

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type purgeFunc func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

// purgeJob deletes rows older than a retention window in one transaction.
// A zero retention disables it.
type purgeJob struct {
	name      string
	logg      *logger.Logger
	db        txRunner
	retention time.Duration
	purge     purgeFunc
	fields    map[string]any
	now       func() time.Time
}

func (j *purgeJob) Name() string { return j.name }

func (j *purgeJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		j.logg.Debug(j.logg.WithField(ctx, "job", j.name), "purge disabled")
		return nil
	}
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.purge(ctx, tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return err
	}

	fields := map[string]any{"cutoff": cutoff, "rows_deleted": deleted}
	for k, v := range j.fields {
		fields[k] = v
	}
	j.logg.Info(j.logg.WithFields(ctx, fields), "purge complete")
	return nil
}

type NotificationCleanupJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository interface {
		DeleteReadBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
	}
	Retention time.Duration
}

// NewNotificationCleanupJob prunes read in-app notifications past retention.
// Notifications are a durable record, so the job only deletes when a positive
// retention is configured. Unread rows are kept regardless of age.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil || params.DB == nil {
		return nil, errors.New("logger and db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("notifications repository required")
	}
	return &purgeJob{
		name:      "notification-cleanup",
		logg:      params.Logger,
		db:        params.DB,
		retention: max(params.Retention, 0),
		purge:     params.Repository.DeleteReadBefore,
		now:       time.Now,
	}, nil
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository interface {
		DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
	}
	RetentionDays int
	// MinAttempts limits the purge to rows that needed at least this many
	// publish attempts. Zero purges everything published.
	MinAttempts int
}

// NewOutboxRetentionJob purges published outbox rows. Pending and
// dead-lettered rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil || params.DB == nil {
		return nil, errors.New("logger and db runner required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository required")
	}
	retention := time.Duration(params.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	minAttempts := max(params.MinAttempts, 0)
	repo := params.Repository
	return &purgeJob{
		name:      "outbox-retention",
		logg:      params.Logger,
		db:        params.DB,
		retention: retention,
		purge: func(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
			return repo.DeletePublishedBefore(ctx, tx, cutoff, minAttempts)
		},
		fields: map[string]any{"min_attempts": minAttempts},
		now:    time.Now,
	}, nil
}
