package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RatePair identifies a crypto/fiat conversion pair, e.g. BTC priced in NGN.
type RatePair struct {
	Crypto Currency
	Fiat   Currency
}

// Key returns the upstream wire format for a pair, "{CRYPTO}_{FIAT}".
func (p RatePair) Key() string {
	return fmt.Sprintf("%s_%s", p.Crypto, p.Fiat)
}

// DisplayedPairs are the six pairs the dashboard renders prices for.
var DisplayedPairs = []RatePair{
	{BTC, NGN}, {BTC, KES},
	{ETH, NGN}, {ETH, KES},
	{USDT, NGN}, {USDT, KES},
}

// RateEntry holds the latest known price for one pair. Entries carry no
// history; each refresh overwrites the previous snapshot wholesale.
type RateEntry struct {
	Pair      RatePair
	Price     decimal.Decimal
	FetchedAt time.Time
}
