package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/models"
	"golang.org/x/time/rate"
)

type exchangeRateServiceImpl struct {
	db           *sql.DB
	provider     RateProvider
	snapshots    *cache.Cache // hot copy of the persisted snapshots, keyed by base currency
	staleness    time.Duration
	quotaBuffer  int
	trackedBases []string
	pacer        *rate.Limiter // spaces provider calls during a refresh sweep
	now          func() time.Time
	refreshMu    sync.Mutex
}

// NewExchangeRateService creates the rate cache. snapshotCache is the shared
// in-process cache; the database table is the durable copy that survives
// restarts. trackedBases are refreshed together and should include USD,
// which backs the cross-rate fallback.
func NewExchangeRateService(db *sql.DB, provider RateProvider, snapshotCache *cache.Cache,
	staleness time.Duration, quotaBuffer int, trackedBases []string) ExchangeRateService {
	return &exchangeRateServiceImpl{
		db:           db,
		provider:     provider,
		snapshots:    snapshotCache,
		staleness:    staleness,
		quotaBuffer:  quotaBuffer,
		trackedBases: trackedBases,
		pacer:        rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		now:          time.Now,
	}
}

// GetCurrentExchangeRate answers rate(from->to). Identical currencies short
// circuit to 1 without touching the snapshot store. A fresh snapshot wins; a
// stale one triggers a refresh attempt but is still served if the refresh
// fails. Only total absence of any usable snapshot is an error.
func (s *exchangeRateServiceImpl) GetCurrentExchangeRate(ctx context.Context, fromCurrency, toCurrency string) (RateResult, error) {
	from := normalizeCurrency(fromCurrency)
	to := normalizeCurrency(toCurrency)
	if from == to {
		return RateResult{Rate: decimal.NewFromInt(1), FetchedAt: s.now()}, nil
	}

	cached, found := s.lookup(ctx, from, to)
	if found && !cached.Stale {
		return cached, nil
	}

	refreshErr := s.refresh(ctx)
	if refreshErr == nil {
		if result, ok := s.lookup(ctx, from, to); ok {
			return result, nil
		}
	} else {
		logger.L.Warn("Exchange rate refresh failed", "from", from, "to", to, "error", refreshErr)
	}

	if found {
		// Stale-but-present is a warning, not a failure: external rate
		// staleness must never block a transfer.
		logger.L.Warn("Serving stale exchange rate", "from", from, "to", to, "fetchedAt", cached.FetchedAt)
		return cached, nil
	}
	if refreshErr != nil && errors.Is(refreshErr, models.ErrRateLimitExceeded) {
		return RateResult{}, refreshErr
	}
	return RateResult{}, fmt.Errorf("no snapshot can convert %s to %s: %w", from, to, models.ErrExchangeRateUnavailable)
}

// lookup resolves from->to out of stored snapshots only. A snapshot based on
// `from` is preferred; otherwise the USD table derives the cross rate
// rates[to]/rates[from]. The bool result reports whether any value was found.
func (s *exchangeRateServiceImpl) lookup(ctx context.Context, from, to string) (RateResult, bool) {
	if snap, ok := s.snapshot(ctx, from); ok {
		if r, ok := snap.Rate(to); ok {
			return RateResult{Rate: r, FetchedAt: snap.FetchedAt, Stale: snap.StaleAt(s.now(), s.staleness)}, true
		}
	}
	if snap, ok := s.snapshot(ctx, crossRateBase); ok {
		rTo, okTo := snap.Rate(to)
		rFrom, okFrom := snap.Rate(from)
		if okTo && okFrom && !rFrom.IsZero() {
			return RateResult{Rate: rTo.Div(rFrom), FetchedAt: snap.FetchedAt, Stale: snap.StaleAt(s.now(), s.staleness)}, true
		}
	}
	return RateResult{}, false
}

// crossRateBase is the base currency whose full table backs pair derivation
// when no direct snapshot exists.
const crossRateBase = "USD"

func (s *exchangeRateServiceImpl) snapshot(ctx context.Context, base string) (*models.ExchangeRateSnapshot, bool) {
	if v, ok := s.snapshots.Get(base); ok {
		if snap, ok := v.(*models.ExchangeRateSnapshot); ok {
			return snap, true
		}
	}

	var ratesJSON, fetchedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT rates, fetched_at FROM exchange_rate_snapshots WHERE base_currency = ?", base).
		Scan(&ratesJSON, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		logger.L.Error("Error loading exchange rate snapshot", "base", base, "error", err)
		return nil, false
	}

	snap := &models.ExchangeRateSnapshot{BaseCurrency: base}
	if err := json.Unmarshal([]byte(ratesJSON), &snap.Rates); err != nil {
		logger.L.Error("Error decoding stored snapshot rates", "base", base, "error", err)
		return nil, false
	}
	if snap.FetchedAt, err = parseTime(fetchedAt); err != nil {
		logger.L.Error("Error parsing snapshot fetched_at", "base", base, "value", fetchedAt, "error", err)
		return nil, false
	}
	s.snapshots.Set(base, snap, cache.NoExpiration)
	return snap, true
}

// refresh pulls fresh tables for every tracked base, guarded by the provider
// quota buffer. Only one refresh sweep runs at a time in this process;
// storage-level races with other processes are harmless because the write is
// an idempotent upsert.
func (s *exchangeRateServiceImpl) refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	remaining, err := s.provider.RemainingQuota(ctx)
	if err != nil {
		return fmt.Errorf("checking provider quota: %w", err)
	}
	if remaining < s.quotaBuffer {
		return fmt.Errorf("%w: %d requests left, safety buffer is %d", models.ErrRateLimitExceeded, remaining, s.quotaBuffer)
	}

	var firstErr error
	refreshed := 0
	for _, base := range s.trackedBases {
		if err := s.pacer.Wait(ctx); err != nil {
			return err
		}

		var rates map[string]decimal.Decimal
		fetch := func() error {
			var err error
			rates, err = s.provider.FetchRates(ctx, base)
			return err
		}
		bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		if err := backoff.Retry(fetch, bo); err != nil {
			logger.L.Warn("Failed to refresh snapshot", "base", base, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("fetching rates for %s: %w", base, err)
			}
			continue
		}

		if err := s.storeSnapshot(ctx, base, rates); err != nil {
			logger.L.Error("Failed to store snapshot", "base", base, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}

	if refreshed == 0 && firstErr != nil {
		return firstErr
	}
	logger.L.Info("Exchange rate snapshots refreshed", "refreshed", refreshed, "tracked", len(s.trackedBases))
	return nil
}

func (s *exchangeRateServiceImpl) storeSnapshot(ctx context.Context, base string, rates map[string]decimal.Decimal) error {
	snap := &models.ExchangeRateSnapshot{
		BaseCurrency: base,
		Rates:        rates,
		FetchedAt:    s.now(),
	}
	ratesJSON, err := json.Marshal(snap.Rates)
	if err != nil {
		return fmt.Errorf("encoding snapshot rates for %s: %w", base, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchange_rate_snapshots (base_currency, rates, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(base_currency) DO UPDATE SET rates = excluded.rates, fetched_at = excluded.fetched_at`,
		base, string(ratesJSON), formatTime(snap.FetchedAt))
	if err != nil {
		return fmt.Errorf("upserting snapshot for %s: %w", base, err)
	}
	s.snapshots.Set(base, snap, cache.NoExpiration)
	return nil
}
