package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/walletfolio/backend/src/models"
)

func TestCreateWalletWithOpeningBalance(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	w, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name:           "Checking",
		Currency:       "usd",
		OpeningBalance: mustDecimal(t, "250.75"),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", w.Currency)
	assert.True(t, w.Balance.Equal(mustDecimal(t, "250.75")))

	// The opening balance is itself a ledger event.
	ledger := NewLedgerService(db, NewTransferService(db, &stubRateService{}, true), true)
	txs, err := ledger.ListTransactions(ctx, testUserID, TransactionFilter{WalletID: &w.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TransactionTypeAdjustment, txs[0].Type)
	assert.True(t, txs[0].Amount.Equal(mustDecimal(t, "250.75")))
	assert.Nil(t, txs[0].CategoryID)
}

func TestCreateWalletWithoutOpeningBalanceHasNoAdjustment(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)

	w, err := wallets.CreateWallet(context.Background(), testUserID, CreateWalletInput{
		Name:     "Empty",
		Currency: "EUR",
	})
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, 0, countRows(t, db, "transactions"))
}

func TestCreateWalletValidation(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	_, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{Name: "", Currency: "USD"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = wallets.CreateWallet(ctx, testUserID, CreateWalletInput{Name: "x", Currency: "DOLLARS"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = wallets.CreateWallet(ctx, testUserID, CreateWalletInput{
		Name: "x", Currency: "USD", OpeningBalance: mustDecimal(t, "-5"),
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestDeleteWalletBlockedWhileHistoryExists(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	w := createTestWallet(t, wallets, "USD", "100")
	err := wallets.DeleteWallet(ctx, testUserID, w.ID)
	assert.ErrorIs(t, err, models.ErrWalletNotEmpty)

	// Removing the history unblocks deletion.
	ledger := NewLedgerService(db, NewTransferService(db, &stubRateService{}, true), true)
	txs, err := ledger.ListTransactions(ctx, testUserID, TransactionFilter{WalletID: &w.ID})
	require.NoError(t, err)
	for _, tx := range txs {
		require.NoError(t, ledger.DeleteTransaction(ctx, testUserID, tx.ID))
	}
	require.NoError(t, wallets.DeleteWallet(ctx, testUserID, w.ID))

	_, err = wallets.GetWallet(ctx, testUserID, w.ID)
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
}

func TestDeleteWalletBlockedByIncomingTransfers(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	from := createTestWallet(t, wallets, "USD", "100")
	to, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{Name: "Dest", Currency: "USD"})
	require.NoError(t, err)

	transfers := NewTransferService(db, &stubRateService{}, true)
	_, err = transfers.CreateTransfer(ctx, testUserID, CreateTransferInput{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       mustDecimal(t, "10"),
	})
	require.NoError(t, err)

	// The destination wallet only appears as to_wallet_id, and still counts.
	err = wallets.DeleteWallet(ctx, testUserID, to.ID)
	assert.ErrorIs(t, err, models.ErrWalletNotEmpty)
}

func TestUpdateWalletFields(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	w, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{Name: "Stash", Currency: "USD"})
	require.NoError(t, err)

	name := "Holiday fund"
	saving := true
	goal := mustDecimal(t, "5000")
	updated, err := wallets.UpdateWallet(ctx, testUserID, w.ID, UpdateWalletInput{
		Name:              &name,
		IsSavingAccount:   &saving,
		SavingAccountGoal: &goal,
	})
	require.NoError(t, err)
	assert.Equal(t, "Holiday fund", updated.Name)
	assert.True(t, updated.IsSavingAccount)
	assert.True(t, updated.SavingAccountGoal.Equal(goal))
}

func TestUpdateWalletCurrencyBlockedWithHistory(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	w := createTestWallet(t, wallets, "USD", "100")
	eur := "EUR"
	_, err := wallets.UpdateWallet(ctx, testUserID, w.ID, UpdateWalletInput{Currency: &eur})
	assert.ErrorIs(t, err, models.ErrWalletNotEmpty)

	empty, err := wallets.CreateWallet(ctx, testUserID, CreateWalletInput{Name: "Fresh", Currency: "USD"})
	require.NoError(t, err)
	updated, err := wallets.UpdateWallet(ctx, testUserID, empty.ID, UpdateWalletInput{Currency: &eur})
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.Currency)
}

func TestListWalletsScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	wallets := NewWalletService(db)
	ctx := context.Background()

	createTestWallet(t, wallets, "USD", "1")
	createTestWallet(t, wallets, "EUR", "2")
	_, err := wallets.CreateWallet(ctx, testUserID+1, CreateWalletInput{Name: "Other", Currency: "GBP"})
	require.NoError(t, err)

	mine, err := wallets.ListWallets(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
