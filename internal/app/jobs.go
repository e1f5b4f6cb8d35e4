/**
 * @description
 * Background job implementations invoked by the cron scheduler.
 */
package app

import (
	"context"
	"log/slog"
	"time"
)

// Jobs bundles the scheduled work with its dependencies.
type Jobs struct {
	rates    *RateCache
	sessions *SessionStore
	flows    *FlowManager
	logger   *slog.Logger

	// maxFlowIdle is how long an untouched auth flow survives.
	maxFlowIdle time.Duration
}

// NewJobs creates the job set.
func NewJobs(rates *RateCache, sessions *SessionStore, flows *FlowManager, logger *slog.Logger, maxFlowIdle time.Duration) *Jobs {
	return &Jobs{
		rates:       rates,
		sessions:    sessions,
		flows:       flows,
		logger:      logger,
		maxFlowIdle: maxFlowIdle,
	}
}

// RefreshRates keeps the rate cache warm between pull-triggered refreshes.
// Skipped while no session is active since the rates endpoints require
// authentication.
func (j *Jobs) RefreshRates() {
	token, ok := j.sessions.Token()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.rates.Refresh(ctx, token); err != nil {
		j.logger.Warn("scheduled rate refresh failed", "error", err)
	}
}

// ReapAuthFlows destroys auth flows abandoned by their browser tab.
func (j *Jobs) ReapAuthFlows() {
	j.flows.ReapIdle(j.maxFlowIdle)
}
