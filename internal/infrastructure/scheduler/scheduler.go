// Package scheduler runs the engine's periodic jobs: bankruptcy rounds and
// price recomputation.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Job is a named task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a set of jobs until its context is canceled.
type Scheduler struct {
	jobs   []Job
	logger zerolog.Logger
}

// New creates a Scheduler. Jobs with a non-positive interval are disabled.
func New(logger zerolog.Logger, jobs ...Job) *Scheduler {
	enabled := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job.Interval <= 0 {
			logger.Info().Str("job", job.Name).Msg("job disabled")
			continue
		}
		enabled = append(enabled, job)
	}

	return &Scheduler{jobs: enabled, logger: logger}
}

// Jobs returns the enabled jobs.
func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Start runs every enabled job on its own ticker and blocks until ctx is done.
// A failing run is logged and the job keeps its schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, job := range s.jobs {
		g.Go(func() error {
			return s.loop(ctx, job)
		})
	}

	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) error {
	logger := s.logger.With().Str("job", job.Name).Logger()
	logger.Info().Dur("interval", job.Interval).Msg("job scheduled")

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("job stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx, logger, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, logger zerolog.Logger, job Job) {
	start := time.Now()

	err := job.Run(ctx)
	switch {
	case err == nil:
		logger.Debug().Dur("duration", time.Since(start)).Msg("job completed")
	case errors.Is(err, context.Canceled):
	default:
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("job failed")
	}
}
