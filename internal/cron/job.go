package cron

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Job is a unit of scheduled work. Jobs run sequentially within a cycle and
// must tolerate being re-run after a partial failure.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Result describes one job run inside a cycle.
type Result struct {
	Job      string
	Duration time.Duration
	Err      error
}

func validateJobs(jobs []Job) ([]Job, error) {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]Job, 0, len(jobs))
	for i, job := range jobs {
		if job == nil {
			return nil, fmt.Errorf("job %d is nil", i)
		}
		name := strings.TrimSpace(job.Name())
		if name == "" {
			return nil, fmt.Errorf("job %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("job %q registered twice", name)
		}
		seen[name] = struct{}{}
		out = append(out, job)
	}
	return out, nil
}
