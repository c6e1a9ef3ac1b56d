package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/walletfolio/backend/src/models"
)

func newTransferFixture(t *testing.T, allowNegative bool) (TransferService, WalletService, *stubRateService, *testFixture) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	rates := &stubRateService{rates: map[string]RateResult{}}
	transfers := NewTransferService(db, rates, allowNegative)
	return transfers, wallets, rates, &testFixture{db: db}
}

// The spec scenario: wallet A (USD, 100), wallet B (EUR, 50), transfer 20 at
// rate 0.9 leaves A at 80 and B at 68; deleting the transfer restores both.
func TestCrossCurrencyTransferRoundTrip(t *testing.T) {
	transfers, wallets, rates, fx := newTransferFixture(t, true)
	ctx := context.Background()
	rates.rates["USD->EUR"] = RateResult{Rate: mustDecimal(t, "0.9"), FetchedAt: time.Now()}

	a := createTestWallet(t, wallets, "USD", "100")
	b := createTestWallet(t, wallets, "EUR", "50")

	tx, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "20"),
		Description:  "rent share",
	})
	require.NoError(t, err)
	require.Equal(t, models.TransactionTypeTransfer, tx.Type)
	require.NotNil(t, tx.ToWalletID)
	assert.Equal(t, b.ID, *tx.ToWalletID)

	assert.True(t, walletBalance(t, fx.db, a.ID.String()).Equal(mustDecimal(t, "80")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "68")))

	transfer, err := transfers.GetTransferByTransaction(ctx, testUserID, tx.ID)
	require.NoError(t, err)
	assert.True(t, transfer.AmountSent.Equal(mustDecimal(t, "20")))
	assert.True(t, transfer.AmountReceived.Equal(mustDecimal(t, "18")))
	assert.True(t, transfer.ExchangeRate.Equal(mustDecimal(t, "0.9")))
	assert.True(t, transfer.AmountReceived.Equal(transfer.AmountSent.Mul(transfer.ExchangeRate)))

	require.NoError(t, transfers.DeleteTransfer(ctx, testUserID, tx.ID))
	assert.True(t, walletBalance(t, fx.db, a.ID.String()).Equal(mustDecimal(t, "100")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "50")))
	assert.Equal(t, 0, countRows(t, fx.db, "transfers"))
	// The backing transaction goes with the transfer row.
	_, err = getTransaction(ctx, fx.db, testUserID, tx.ID)
	assert.ErrorIs(t, err, models.ErrTransactionNotFound)
}

func TestSameCurrencyTransferSkipsRateLookup(t *testing.T) {
	transfers, wallets, rates, fx := newTransferFixture(t, true)
	ctx := context.Background()

	a := createTestWallet(t, wallets, "USD", "100")
	b := createTestWallet(t, wallets, "USD", "0")

	tx, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "40"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, rates.callCount())

	transfer, err := transfers.GetTransferByTransaction(ctx, testUserID, tx.ID)
	require.NoError(t, err)
	assert.True(t, transfer.ExchangeRate.Equal(mustDecimal(t, "1")))
	assert.True(t, transfer.AmountReceived.Equal(transfer.AmountSent))
	assert.True(t, walletBalance(t, fx.db, a.ID.String()).Equal(mustDecimal(t, "60")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "40")))
}

func TestSameWalletTransferRejected(t *testing.T) {
	transfers, wallets, _, _ := newTransferFixture(t, true)
	a := createTestWallet(t, wallets, "USD", "100")

	_, err := transfers.CreateTransfer(context.Background(), testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   a.ID,
		Amount:       mustDecimal(t, "10"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidTransfer)
}

func TestTransferToMissingWalletRejected(t *testing.T) {
	transfers, wallets, _, _ := newTransferFixture(t, true)
	a := createTestWallet(t, wallets, "USD", "100")

	_, err := transfers.CreateTransfer(context.Background(), testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   uuid.New(),
		Amount:       mustDecimal(t, "10"),
	})
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
}

// A failed rate lookup must leave no trace: no transaction row, no transfer
// row, both balances untouched.
func TestRateFailureAbortsTransferAtomically(t *testing.T) {
	transfers, wallets, rates, fx := newTransferFixture(t, true)
	ctx := context.Background()

	a := createTestWallet(t, wallets, "USD", "100")
	b := createTestWallet(t, wallets, "EUR", "50")
	before := countRows(t, fx.db, "transactions")

	rates.err = models.ErrExchangeRateUnavailable
	_, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "20"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrExchangeRateUnavailable)

	assert.True(t, walletBalance(t, fx.db, a.ID.String()).Equal(mustDecimal(t, "100")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "50")))
	assert.Equal(t, before, countRows(t, fx.db, "transactions"))
	assert.Equal(t, 0, countRows(t, fx.db, "transfers"))
}

func TestTransferOverdraftBlockedWhenNegativeBalanceDisabled(t *testing.T) {
	transfers, wallets, _, fx := newTransferFixture(t, false)
	ctx := context.Background()

	a := createTestWallet(t, wallets, "USD", "10")
	b := createTestWallet(t, wallets, "USD", "0")

	_, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "25"),
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.True(t, walletBalance(t, fx.db, a.ID.String()).Equal(mustDecimal(t, "10")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "0")))
	assert.Equal(t, 0, countRows(t, fx.db, "transfers"))
}

func TestDeleteTransferWithoutDetailRow(t *testing.T) {
	transfers, wallets, _, _ := newTransferFixture(t, true)
	_ = wallets

	err := transfers.DeleteTransfer(context.Background(), testUserID, uuid.New())
	assert.ErrorIs(t, err, models.ErrTransferNotFound)
}

func TestStaleRateStillCompletesTransfer(t *testing.T) {
	transfers, wallets, rates, fx := newTransferFixture(t, true)
	ctx := context.Background()
	rates.rates["USD->EUR"] = RateResult{
		Rate:      mustDecimal(t, "0.85"),
		FetchedAt: time.Now().Add(-48 * time.Hour),
		Stale:     true,
	}

	a := createTestWallet(t, wallets, "USD", "100")
	b := createTestWallet(t, wallets, "EUR", "0")

	tx, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "10"),
	})
	require.NoError(t, err)

	transfer, err := transfers.GetTransferByTransaction(ctx, testUserID, tx.ID)
	require.NoError(t, err)
	assert.True(t, transfer.ExchangeRate.Equal(mustDecimal(t, "0.85")))
	assert.True(t, walletBalance(t, fx.db, b.ID.String()).Equal(mustDecimal(t, "8.5")))
}

func TestTransferErrorsSurfaceUnchanged(t *testing.T) {
	transfers, wallets, rates, _ := newTransferFixture(t, true)
	ctx := context.Background()

	a := createTestWallet(t, wallets, "USD", "100")
	b := createTestWallet(t, wallets, "EUR", "0")

	rates.err = models.ErrRateLimitExceeded
	_, err := transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: a.ID,
		ToWalletID:   b.ID,
		Amount:       mustDecimal(t, "10"),
	})
	assert.True(t, errors.Is(err, models.ErrRateLimitExceeded))
}
