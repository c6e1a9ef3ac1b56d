package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/username/walletfolio/backend/src/database"
	"github.com/username/walletfolio/backend/src/models"
)

const testUserID int64 = 42

// testFixture bundles the handles a service test needs to inspect storage directly.
type testFixture struct {
	db *sql.DB
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func createTestWallet(t *testing.T, svc WalletService, currency, balance string) *models.Wallet {
	t.Helper()
	w, err := svc.CreateWallet(context.Background(), testUserID, CreateWalletInput{
		Name:           currency + " wallet",
		Currency:       currency,
		OpeningBalance: mustDecimal(t, balance),
	})
	require.NoError(t, err)
	return w
}

func walletBalance(t *testing.T, db *sql.DB, id string) decimal.Decimal {
	t.Helper()
	var s string
	require.NoError(t, db.QueryRow("SELECT balance FROM wallets WHERE id = ?", id).Scan(&s))
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

// stubRateService is a canned ExchangeRateService for transfer and savings tests.
type stubRateService struct {
	mu    sync.Mutex
	rates map[string]RateResult // keyed "FROM->TO"
	err   error
	calls int
}

func (s *stubRateService) GetCurrentExchangeRate(ctx context.Context, from, to string) (RateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return RateResult{}, s.err
	}
	if from == to {
		return RateResult{Rate: decimal.NewFromInt(1), FetchedAt: time.Now()}, nil
	}
	r, ok := s.rates[from+"->"+to]
	if !ok {
		return RateResult{}, models.ErrExchangeRateUnavailable
	}
	return r, nil
}

func (s *stubRateService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeRateProvider is an in-memory RateProvider for exchange rate cache tests.
type fakeRateProvider struct {
	mu         sync.Mutex
	tables     map[string]map[string]decimal.Decimal
	quota      int
	fetchErr   error
	quotaErr   error
	fetchCalls int
	quotaCalls int
}

func (p *fakeRateProvider) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	table, ok := p.tables[base]
	if !ok {
		return nil, models.ErrExchangeRateUnavailable
	}
	return table, nil
}

func (p *fakeRateProvider) RemainingQuota(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotaCalls++
	if p.quotaErr != nil {
		return 0, p.quotaErr
	}
	return p.quota, nil
}

func (p *fakeRateProvider) counts() (fetch, quota int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls, p.quotaCalls
}
