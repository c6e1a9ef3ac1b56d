package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRateSnapshot is a point-in-time table of conversion multipliers
// relative to one base currency. Snapshots are replaced on refresh, never
// mutated in place; at most one live snapshot exists per base currency.
type ExchangeRateSnapshot struct {
	BaseCurrency string                     `json:"base_currency"`
	Rates        map[string]decimal.Decimal `json:"rates"` // currency code -> multiplier relative to base
	FetchedAt    time.Time                  `json:"fetched_at"`
}

// Rate returns the multiplier for the given currency code, if present.
func (s *ExchangeRateSnapshot) Rate(currency string) (decimal.Decimal, bool) {
	r, ok := s.Rates[currency]
	return r, ok
}

// StaleAt reports whether the snapshot is older than threshold at time now.
// A stale snapshot is a candidate for refresh but still usable as a fallback.
func (s *ExchangeRateSnapshot) StaleAt(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.FetchedAt) > threshold
}
