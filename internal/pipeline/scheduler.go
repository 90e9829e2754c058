package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler re-runs the analysis on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	analyzer *Analyzer
	spec     string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewScheduler validates spec (standard five-field cron syntax) and prepares a
// scheduler. Each run is bounded by timeout.
func NewScheduler(spec string, a *Analyzer, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		analyzer: a,
		spec:     spec,
		timeout:  timeout,
		logger:   logger,
	}
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("refresh scheduler started", "schedule", s.spec)
}

// Stop prevents new runs and waits for a running one to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("refresh scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("refresh scheduler stop timed out", "error", ctx.Err())
	}
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	s.logger.Info("scheduled refresh started")
	_, err := s.analyzer.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrPublish):
		s.logger.Warn("scheduled refresh published partially", "error", err)
	default:
		s.logger.Error("scheduled refresh failed, keeping previous result", "error", err)
	}
}
