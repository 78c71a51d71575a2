package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/equiptrade/fulfillment-backend/pkg/logger"
	"github.com/equiptrade/fulfillment-backend/pkg/metrics"
)

const (
	defaultInterval   = time.Hour
	defaultJobTimeout = 10 * time.Minute
)

// ErrLockHeld is returned by RunOnce when another replica owns the cycle.
var ErrLockHeld = errors.New("cron lock held by another instance")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Logger     *logger.Logger
	Jobs       []Job
	Lock       Lock
	Metrics    *metrics.CronJobMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs its jobs once per interval on whichever replica wins the lock.
type Service struct {
	logg       *logger.Logger
	jobs       []Job
	lock       Lock
	metrics    *metrics.CronJobMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	jobs, err := validateJobs(params.Jobs)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, errors.New("at least one job required")
	}
	svc := &Service{
		logg:       params.Logger,
		jobs:       jobs,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// Run executes a cycle immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, ErrLockHeld) {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs every job a single time under the lock. A failing job does not
// stop the ones after it; the returned error joins their failures.
func (s *Service) RunOnce(ctx context.Context) ([]Result, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return nil, ErrLockHeld
	}
	defer func() {
		// release even when ctx was canceled mid-cycle
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "release cron lock", relErr)
		}
	}()

	started := time.Now()
	results := make([]Result, 0, len(s.jobs))
	var failed []error
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			break
		}
		res := s.runJob(ctx, job)
		results = append(results, res)
		if res.Err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", res.Job, res.Err))
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":        len(results),
		"failed":      len(failed),
		"duration_ms": time.Since(started).Milliseconds(),
	}), "cron cycle complete")
	return results, errors.Join(failed...)
}

func (s *Service) runJob(ctx context.Context, job Job) (res Result) {
	res.Job = job.Name()
	jobCtx, cancel := context.WithTimeout(s.logg.WithField(ctx, "job", res.Job), s.jobTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic: %v", r)
		}
		res.Duration = time.Since(start)
		s.metrics.ObserveRun(res.Job, res.Duration, res.Err)

		logCtx := s.logg.WithField(jobCtx, "duration_ms", res.Duration.Milliseconds())
		if res.Err != nil {
			s.logg.Error(logCtx, "cron job failed", res.Err)
			return
		}
		s.logg.Debug(logCtx, "cron job done")
	}()

	res.Err = job.Run(jobCtx)
	return res
}
