package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ArticleEnhancer/internal/domain"
	"ArticleEnhancer/internal/ports"
)

// Runner is the part of Pipeline the scheduler drives.
type Runner interface {
	Run(ctx context.Context) (domain.Article, error)
}

// Scheduler re-runs the pipeline on every tick of the driver. Failed runs are
// logged; an empty queue is routine in this mode.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline Runner
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.runOnce(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

func (s *Scheduler) runOnce(ctx context.Context, trigger time.Time) {
	article, err := s.pipeline.Run(ctx)
	if s.logger == nil {
		return
	}

	switch {
	case err == nil:
		s.logger.Info("scheduled run published article", "id", article.ID, "trigger", trigger)
	case errors.Is(err, domain.ErrNoPendingArticle):
		s.logger.Info("scheduled run found nothing pending", "trigger", trigger)
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Warn("scheduled run skipped, another run holds the lock", "trigger", trigger)
	case errors.Is(err, context.Canceled):
		s.logger.Debug("scheduled run cancelled", "trigger", trigger)
	default:
		d := Diagnose(err)
		s.logger.Error("scheduled run failed", "stage", string(d.Stage), "error", err, "hint", d.Hint)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
