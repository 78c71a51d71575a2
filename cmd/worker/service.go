package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/equiptrade/fulfillment-backend/pkg/logger"
)

const defaultHeartbeat = time.Minute

// errConsumerExited marks a consumer that returned without being asked to stop.
var errConsumerExited = errors.New("consumer exited")

type pinger interface {
	Ping(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

// Dependency is a backing service that must answer a ping before any
// consumer starts.
type Dependency struct {
	Name   string
	Pinger pinger
}

// Consumer is a long-running subscription loop.
type Consumer struct {
	Name   string
	Runner runner
}

type ServiceParams struct {
	Logger            *logger.Logger
	Dependencies      []Dependency
	Consumers         []Consumer
	HeartbeatInterval time.Duration
}

// Service supervises the worker's consumers. They share one lifetime: the
// first consumer to fail stops the rest.
type Service struct {
	logg      *logger.Logger
	deps      []Dependency
	consumers []Consumer
	heartbeat time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if len(params.Consumers) == 0 {
		return nil, errors.New("at least one consumer is required")
	}
	for _, dep := range params.Dependencies {
		if dep.Pinger == nil {
			return nil, fmt.Errorf("%s client is required", dep.Name)
		}
	}
	for _, c := range params.Consumers {
		if c.Runner == nil {
			return nil, fmt.Errorf("%s consumer is required", c.Name)
		}
	}

	heartbeat := params.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Service{
		logg:      params.Logger,
		deps:      params.Dependencies,
		consumers: params.Consumers,
		heartbeat: heartbeat,
	}, nil
}

// ready pings every dependency and reports all of the failures, not just the
// first.
func (s *Service) ready(ctx context.Context) error {
	var errs error
	for _, dep := range s.deps {
		if err := dep.Pinger.Ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.Name), "dependency ping failed", err)
			errs = multierr.Append(errs, fmt.Errorf("%s ping failed: %w", dep.Name, err))
		}
	}
	if errs != nil {
		return errs
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, c := range s.consumers {
		group.Go(func() error {
			consumerCtx := s.logg.WithField(groupCtx, "consumer", c.Name)
			s.logg.Info(consumerCtx, "consumer started")
			err := c.Runner.Run(groupCtx)
			switch {
			case groupCtx.Err() != nil:
				s.logg.Info(consumerCtx, "consumer stopped")
				return nil
			case err == nil:
				err = errConsumerExited
			}
			s.logg.Error(consumerCtx, "consumer stopped unexpectedly", err)
			return fmt.Errorf("%s consumer: %w", c.Name, err)
		})
	}
	group.Go(func() error {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				s.logg.Debug(groupCtx, "worker heartbeat")
			}
		}
	})

	err := group.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logg.Info(ctx, "worker context canceled")
		return ctxErr
	}
	return err
}
