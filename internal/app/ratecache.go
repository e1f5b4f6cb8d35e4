/**
 * @description
 * This file implements the exchange rate cache. It holds the freshest known
 * price for each crypto/fiat pair the dashboard displays.
 *
 * Key properties:
 * - Refresh triggers an upstream recalculation, fetches the snapshot and
 *   replaces all entries atomically; readers never observe a half-updated
 *   set.
 * - A failed refresh keeps the previous snapshot intact (stale but
 *   consistent) and is logged, never surfaced as a blocking error.
 * - Before the first successful refresh every lookup reports unavailable;
 *   the UI renders "Loading..." for those pairs.
 */
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/domain"
)

// RateSource is the upstream surface the cache refreshes from.
type RateSource interface {
	UpdateRates(ctx context.Context, token string) error
	GetRates(ctx context.Context, token string) (map[string]decimal.Decimal, error)
}

// RateCache caches the latest conversion rates between crypto and fiat
// pairs. It is a process-wide singleton mutated only by its own Refresh.
type RateCache struct {
	source RateSource
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]domain.RateEntry
}

// NewRateCache creates an empty rate cache.
func NewRateCache(source RateSource, logger *slog.Logger) *RateCache {
	return &RateCache{
		source: source,
		logger: logger,
	}
}

// Refresh triggers an upstream rate recalculation, fetches the resulting
// snapshot and swaps it in wholesale. The error is returned for logging at
// call sites that want it, but a failure leaves the cache untouched.
func (c *RateCache) Refresh(ctx context.Context, token string) error {
	if err := c.source.UpdateRates(ctx, token); err != nil {
		c.logger.Warn("rate update trigger failed", "error", err)
		return err
	}

	rates, err := c.source.GetRates(ctx, token)
	if err != nil {
		c.logger.Warn("rate fetch failed, keeping previous snapshot", "error", err)
		return err
	}

	now := time.Now()
	entries := make(map[string]domain.RateEntry, len(domain.DisplayedPairs))
	for _, pair := range domain.DisplayedPairs {
		price, ok := rates[pair.Key()]
		if !ok {
			continue
		}
		entries[pair.Key()] = domain.RateEntry{
			Pair:      pair,
			Price:     price,
			FetchedAt: now,
		}
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	c.logger.Info("rates refreshed", "pairs", len(entries))
	return nil
}

// Get returns the cached price for a pair. ok is false until the first
// successful refresh populated the pair.
func (c *RateCache) Get(pair domain.RatePair) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[pair.Key()]
	if !ok {
		return decimal.Decimal{}, false
	}
	return entry.Price, true
}

// Snapshot returns a copy of every cached entry, for rendering the rates
// panel in one read.
func (c *RateCache) Snapshot() []domain.RateEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]domain.RateEntry, 0, len(c.entries))
	for _, pair := range domain.DisplayedPairs {
		if entry, ok := c.entries[pair.Key()]; ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
