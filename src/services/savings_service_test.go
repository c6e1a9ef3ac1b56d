package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/walletfolio/backend/src/models"
)

func TestSavingsSummaryConvertsAndSums(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	savingGoal := mustDecimal(t, "1000")
	saving := true
	eurWallet := createTestWallet(t, wallets, "EUR", "400")
	_, err := wallets.UpdateWallet(ctx, testUserID, eurWallet.ID, UpdateWalletInput{
		IsSavingAccount: &saving, SavingAccountGoal: &savingGoal,
	})
	require.NoError(t, err)

	usdGoal := mustDecimal(t, "500")
	usdWallet, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name: "USD savings", Currency: "USD", OpeningBalance: mustDecimal(t, "100"),
		IsSavingAccount: true, SavingAccountGoal: usdGoal,
	})
	require.NoError(t, err)
	_ = usdWallet

	// A non-saving wallet must not appear in the summary.
	createTestWallet(t, wallets, "USD", "9999")

	rates := &stubRateService{rates: map[string]RateResult{
		"EUR->USD": {Rate: mustDecimal(t, "1.1"), FetchedAt: time.Now()},
	}}
	savings := NewSavingsService(db, rates)

	summary, err := savings.GetSavingsSummary(ctx, testUserID, "USD")
	require.NoError(t, err)
	assert.Equal(t, "USD", summary.Currency)
	require.Len(t, summary.Wallets, 2)

	// EUR 400 * 1.1 + USD 100 = 540; goals: 1000 * 1.1 + 500 = 1600.
	assert.True(t, summary.TotalSavings.Equal(mustDecimal(t, "540")), "got %s", summary.TotalSavings)
	assert.True(t, summary.TotalGoal.Equal(mustDecimal(t, "1600")), "got %s", summary.TotalGoal)
	assert.True(t, summary.AmountLeftToGoal.Equal(mustDecimal(t, "1060")), "got %s", summary.AmountLeftToGoal)
	// 540 / 1600 = 33.75%
	assert.True(t, summary.Progress.Equal(mustDecimal(t, "33.75")), "got %s", summary.Progress)
	assert.False(t, summary.RatesStale)
}

func TestSavingsSummaryFlagsStaleRates(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	_, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name: "EUR savings", Currency: "EUR", OpeningBalance: mustDecimal(t, "100"),
		IsSavingAccount: true,
	})
	require.NoError(t, err)

	rates := &stubRateService{rates: map[string]RateResult{
		"EUR->USD": {Rate: mustDecimal(t, "1.1"), FetchedAt: time.Now().Add(-48 * time.Hour), Stale: true},
	}}
	savings := NewSavingsService(db, rates)

	summary, err := savings.GetSavingsSummary(ctx, testUserID, "USD")
	require.NoError(t, err)
	assert.True(t, summary.RatesStale)
	require.Len(t, summary.Wallets, 1)
	assert.True(t, summary.Wallets[0].RateStale)
}

func TestSavingsSummaryWithNoGoal(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	_, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name: "Goalless", Currency: "USD", OpeningBalance: mustDecimal(t, "100"),
		IsSavingAccount: true,
	})
	require.NoError(t, err)

	savings := NewSavingsService(db, &stubRateService{})
	summary, err := savings.GetSavingsSummary(ctx, testUserID, "USD")
	require.NoError(t, err)
	assert.True(t, summary.TotalSavings.Equal(mustDecimal(t, "100")))
	assert.True(t, summary.TotalGoal.IsZero())
	assert.True(t, summary.Progress.IsZero())
	assert.True(t, summary.AmountLeftToGoal.IsZero())
}

func TestSavingsSummaryErrorsOnMissingRate(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	_, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name: "EUR savings", Currency: "EUR", OpeningBalance: mustDecimal(t, "100"),
		IsSavingAccount: true,
	})
	require.NoError(t, err)

	savings := NewSavingsService(db, &stubRateService{rates: map[string]RateResult{}})
	_, err = savings.GetSavingsSummary(ctx, testUserID, "USD")
	assert.ErrorIs(t, err, models.ErrExchangeRateUnavailable)
}
