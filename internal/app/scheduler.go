/**
 * @description
 * Cron scheduler setup for the dashboard's background jobs: keeping the
 * rate cache warm and reaping abandoned auth flows.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/bpay/dashboard-service/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config *config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg *config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.RateRefreshSchedule, s.jobs.RefreshRates); err != nil {
		s.logger.Error("failed to schedule rate refresh job", "error", err)
	} else {
		s.logger.Info("scheduled rate refresh job", "schedule", s.config.RateRefreshSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.FlowReapSchedule, s.jobs.ReapAuthFlows); err != nil {
		s.logger.Error("failed to schedule auth flow reap job", "error", err)
	} else {
		s.logger.Info("scheduled auth flow reap job", "schedule", s.config.FlowReapSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
