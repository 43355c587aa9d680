package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"FeedCollector/internal/ports"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context, trigger time.Time) error

// Scheduler wires the interval driver with a collection job.
type Scheduler struct {
	driver  ports.Scheduler
	job     Job
	logger  *slog.Logger
	running atomic.Bool
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, job Job, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, job: job, logger: orDiscard(logger)}
}

// Start registers the job with the provided scheduler. A trigger that fires
// while the previous run is still in progress is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.job == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.trigger(ctx, trigger)
	})
}

func (s *Scheduler) trigger(ctx context.Context, trigger time.Time) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping", "trigger", trigger)
		return
	}
	defer s.running.Store(false)

	if err := s.job(ctx, trigger); err != nil {
		s.logger.Error("scheduled run failed", "trigger", trigger, "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
