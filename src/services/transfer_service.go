package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/models"
)

type transferServiceImpl struct {
	db                   *sql.DB
	rates                ExchangeRateService
	allowNegativeBalance bool
	now                  func() time.Time
}

// NewTransferService creates the cross-wallet transfer coordinator.
func NewTransferService(db *sql.DB, rates ExchangeRateService, allowNegativeBalance bool) TransferService {
	return &transferServiceImpl{
		db:                   db,
		rates:                rates,
		allowNegativeBalance: allowNegativeBalance,
		now:                  time.Now,
	}
}

// CreateTransfer moves value between two wallets. The exchange rate is
// resolved before the write transaction opens, so the provider is never
// called while the database is locked; the rate is then frozen into the
// transfer row. Transaction, transfer and both wallet balances commit as one
// unit, or not at all.
func (s *transferServiceImpl) CreateTransfer(ctx context.Context, userID int64, input CreateTransferInput) (*models.Transaction, error) {
	if input.FromWalletID == input.ToWalletID {
		return nil, fmt.Errorf("%w: source and destination wallets are the same", models.ErrInvalidTransfer)
	}
	if input.ToWalletID == uuid.Nil {
		return nil, fmt.Errorf("%w: destination wallet is required", models.ErrInvalidTransfer)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}

	fromWallet, err := getWallet(ctx, s.db, userID, input.FromWalletID)
	if err != nil {
		return nil, err
	}
	toWallet, err := getWallet(ctx, s.db, userID, input.ToWalletID)
	if err != nil {
		return nil, err
	}

	exchangeRate := decimal.NewFromInt(1)
	if fromWallet.Currency != toWallet.Currency {
		rateResult, err := s.rates.GetCurrentExchangeRate(ctx, fromWallet.Currency, toWallet.Currency)
		if err != nil {
			return nil, fmt.Errorf("resolving rate %s->%s: %w", fromWallet.Currency, toWallet.Currency, err)
		}
		if rateResult.Stale {
			logger.L.Warn("Transfer using stale exchange rate",
				"from", fromWallet.Currency, "to", toWallet.Currency, "fetchedAt", rateResult.FetchedAt)
		}
		exchangeRate = rateResult.Rate
	}
	amountReceived := input.Amount.Mul(exchangeRate)

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transfer transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read balances inside the serialized write transaction.
	fromWallet, err = getWallet(ctx, tx, userID, input.FromWalletID)
	if err != nil {
		return nil, err
	}
	toWallet, err = getWallet(ctx, tx, userID, input.ToWalletID)
	if err != nil {
		return nil, err
	}

	newFromBalance := fromWallet.Balance.Sub(input.Amount)
	if !s.allowNegativeBalance && newFromBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s cannot cover %s", models.ErrInsufficientFunds, fromWallet.Balance, input.Amount)
	}

	toWalletID := toWallet.ID
	transaction := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		WalletID:    fromWallet.ID,
		ToWalletID:  &toWalletID,
		Amount:      input.Amount,
		Date:        date,
		Type:        models.TransactionTypeTransfer,
		Description: input.Description,
		CreatedAt:   now,
	}
	if err := insertTransaction(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("inserting transfer transaction: %w", err)
	}

	if err := setWalletBalance(ctx, tx, fromWallet.ID, newFromBalance, now); err != nil {
		return nil, fmt.Errorf("debiting wallet %s: %w", fromWallet.ID, err)
	}
	if err := setWalletBalance(ctx, tx, toWallet.ID, toWallet.Balance.Add(amountReceived), now); err != nil {
		return nil, fmt.Errorf("crediting wallet %s: %w", toWallet.ID, err)
	}

	transfer := &models.Transfer{
		ID:             uuid.New(),
		UserID:         userID,
		TransactionID:  transaction.ID,
		FromWalletID:   fromWallet.ID,
		ToWalletID:     toWallet.ID,
		AmountSent:     input.Amount,
		AmountReceived: amountReceived,
		ExchangeRate:   exchangeRate,
		CreatedAt:      now,
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfers (id, user_id, transaction_id, from_wallet_id, to_wallet_id, amount_sent, amount_received, exchange_rate, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		transfer.ID.String(), userID, transaction.ID.String(), fromWallet.ID.String(), toWallet.ID.String(),
		transfer.AmountSent.String(), transfer.AmountReceived.String(), transfer.ExchangeRate.String(), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}
	logger.L.Info("Transfer created",
		"transactionID", transaction.ID, "from", fromWallet.ID, "to", toWallet.ID,
		"amountSent", transfer.AmountSent, "amountReceived", transfer.AmountReceived, "exchangeRate", exchangeRate)
	return transaction, nil
}

func (s *transferServiceImpl) GetTransferByTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) (*models.Transfer, error) {
	return getTransfer(ctx, s.db, userID, transactionID)
}

// DeleteTransfer reverses both wallet balances and removes the transfer and
// its backing transaction atomically. Reached through the ledger's dispatch
// when a transfer-type transaction is deleted.
func (s *transferServiceImpl) DeleteTransfer(ctx context.Context, userID int64, transactionID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transfer delete: %w", err)
	}
	defer tx.Rollback()

	transfer, err := getTransfer(ctx, tx, userID, transactionID)
	if err != nil {
		return err
	}

	fromWallet, err := getWallet(ctx, tx, userID, transfer.FromWalletID)
	if err != nil {
		if err == models.ErrWalletNotFound {
			logger.L.Error("Data integrity violation: transfer references missing source wallet",
				"transferID", transfer.ID, "walletID", transfer.FromWalletID)
		}
		return err
	}
	toWallet, err := getWallet(ctx, tx, userID, transfer.ToWalletID)
	if err != nil {
		if err == models.ErrWalletNotFound {
			logger.L.Error("Data integrity violation: transfer references missing destination wallet",
				"transferID", transfer.ID, "walletID", transfer.ToWalletID)
		}
		return err
	}

	now := s.now()
	if err := setWalletBalance(ctx, tx, fromWallet.ID, fromWallet.Balance.Add(transfer.AmountSent), now); err != nil {
		return fmt.Errorf("restoring wallet %s: %w", fromWallet.ID, err)
	}
	if err := setWalletBalance(ctx, tx, toWallet.ID, toWallet.Balance.Sub(transfer.AmountReceived), now); err != nil {
		return fmt.Errorf("restoring wallet %s: %w", toWallet.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM transfers WHERE id = ?", transfer.ID.String()); err != nil {
		return fmt.Errorf("deleting transfer %s: %w", transfer.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", transactionID.String()); err != nil {
		return fmt.Errorf("deleting transaction %s: %w", transactionID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transfer delete: %w", err)
	}
	logger.L.Info("Transfer deleted", "transactionID", transactionID, "from", fromWallet.ID, "to", toWallet.ID)
	return nil
}

func getTransfer(ctx context.Context, q querier, userID int64, transactionID uuid.UUID) (*models.Transfer, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, transaction_id, from_wallet_id, to_wallet_id, amount_sent, amount_received, exchange_rate, created_at
		 FROM transfers WHERE transaction_id = ? AND user_id = ?`,
		transactionID.String(), userID)

	var t models.Transfer
	var id, txID, fromID, toID, sent, received, rate, createdAt string
	err := row.Scan(&id, &t.UserID, &txID, &fromID, &toID, &sent, &received, &rate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing transfer id %q: %w", id, err)
	}
	if t.TransactionID, err = uuid.Parse(txID); err != nil {
		return nil, fmt.Errorf("parsing transfer transaction id %q: %w", txID, err)
	}
	if t.FromWalletID, err = uuid.Parse(fromID); err != nil {
		return nil, fmt.Errorf("parsing transfer from_wallet_id %q: %w", fromID, err)
	}
	if t.ToWalletID, err = uuid.Parse(toID); err != nil {
		return nil, fmt.Errorf("parsing transfer to_wallet_id %q: %w", toID, err)
	}
	if t.AmountSent, err = decimal.NewFromString(sent); err != nil {
		return nil, fmt.Errorf("parsing transfer amount_sent %q: %w", sent, err)
	}
	if t.AmountReceived, err = decimal.NewFromString(received); err != nil {
		return nil, fmt.Errorf("parsing transfer amount_received %q: %w", received, err)
	}
	if t.ExchangeRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("parsing transfer exchange_rate %q: %w", rate, err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing transfer created_at %q: %w", createdAt, err)
	}
	return &t, nil
}
