package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bpay/dashboard-service/internal/domain"
)

type rateSourceStub struct {
	rates     map[string]decimal.Decimal
	updateErr error
	fetchErr  error
}

func (s *rateSourceStub) UpdateRates(ctx context.Context, token string) error {
	return s.updateErr
}

func (s *rateSourceStub) GetRates(ctx context.Context, token string) (map[string]decimal.Decimal, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.rates, nil
}

func newTestRateCache(source *rateSourceStub) *RateCache {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRateCache(source, logger)
}

func TestRateCache_UnavailableBeforeFirstRefresh(t *testing.T) {
	cache := newTestRateCache(&rateSourceStub{})

	if _, ok := cache.Get(domain.RatePair{Crypto: domain.BTC, Fiat: domain.NGN}); ok {
		t.Fatal("expected no rate before first refresh")
	}
	if entries := cache.Snapshot(); len(entries) != 0 {
		t.Fatalf("expected empty snapshot, got %d entries", len(entries))
	}
}

func TestRateCache_RefreshPopulatesPairs(t *testing.T) {
	source := &rateSourceStub{rates: map[string]decimal.Decimal{
		"BTC_NGN": decimal.RequireFromString("45000000"),
		"ETH_KES": decimal.RequireFromString("420000"),
		"XRP_NGN": decimal.RequireFromString("900"), // not displayed, ignored
	}}
	cache := newTestRateCache(source)

	if err := cache.Refresh(context.Background(), "tok"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	price, ok := cache.Get(domain.RatePair{Crypto: domain.BTC, Fiat: domain.NGN})
	if !ok {
		t.Fatal("expected BTC_NGN to be cached")
	}
	if !price.Equal(decimal.RequireFromString("45000000")) {
		t.Fatalf("expected 45000000, got %s", price)
	}

	// Pairs missing from the upstream snapshot stay unavailable.
	if _, ok := cache.Get(domain.RatePair{Crypto: domain.USDT, Fiat: domain.KES}); ok {
		t.Fatal("expected USDT_KES to be unavailable")
	}
	if entries := cache.Snapshot(); len(entries) != 2 {
		t.Fatalf("expected 2 snapshot entries, got %d", len(entries))
	}
}

func TestRateCache_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	source := &rateSourceStub{rates: map[string]decimal.Decimal{
		"BTC_NGN": decimal.RequireFromString("45000000"),
	}}
	cache := newTestRateCache(source)

	if err := cache.Refresh(context.Background(), "tok"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	source.fetchErr = errors.New("upstream down")
	if err := cache.Refresh(context.Background(), "tok"); err == nil {
		t.Fatal("expected refresh error")
	}

	price, ok := cache.Get(domain.RatePair{Crypto: domain.BTC, Fiat: domain.NGN})
	if !ok || !price.Equal(decimal.RequireFromString("45000000")) {
		t.Fatalf("expected stale snapshot to survive, got %s (ok=%v)", price, ok)
	}
}

func TestRateCache_FailedUpdateTriggerSkipsFetch(t *testing.T) {
	source := &rateSourceStub{
		updateErr: errors.New("recalculation failed"),
		rates: map[string]decimal.Decimal{
			"BTC_NGN": decimal.RequireFromString("1"),
		},
	}
	cache := newTestRateCache(source)

	if err := cache.Refresh(context.Background(), "tok"); err == nil {
		t.Fatal("expected refresh error")
	}
	if _, ok := cache.Get(domain.RatePair{Crypto: domain.BTC, Fiat: domain.NGN}); ok {
		t.Fatal("expected cache to stay empty when the trigger fails")
	}
}
