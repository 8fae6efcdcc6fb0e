package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsPrioritizer/internal/ports"
)

// Scheduler binds the ranking pipeline to a cron-like driver.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *RankingPipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring ranking passes.
func NewScheduler(driver ports.Scheduler, pipeline *RankingPipeline, log *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: log}
}

// Start registers the pipeline with the driver. A failed pass is logged and
// the schedule keeps running.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if _, err := s.pipeline.Run(ctx, trigger); err != nil && s.logger != nil {
			s.logger.Error("ranking pass failed", "trigger", trigger.Format(time.RFC3339), "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
