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

type ledgerServiceImpl struct {
	db                   *sql.DB
	transfers            TransferService
	allowNegativeBalance bool
	now                  func() time.Time
}

// NewLedgerService creates the transaction ledger. The transfer service is
// needed because deleting a transfer-type transaction is dispatched to it.
func NewLedgerService(db *sql.DB, transfers TransferService, allowNegativeBalance bool) LedgerService {
	return &ledgerServiceImpl{
		db:                   db,
		transfers:            transfers,
		allowNegativeBalance: allowNegativeBalance,
		now:                  time.Now,
	}
}

// signedEffect is the delta a transaction applies to its wallet's balance:
// +amount for income and adjustment, -amount for expense.
func signedEffect(txType models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == models.TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

func (s *ledgerServiceImpl) RecordTransaction(ctx context.Context, userID int64, input RecordTransactionInput) (*models.Transaction, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
	}
	switch input.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeAdjustment:
	default:
		return nil, fmt.Errorf("%w: type %q cannot be recorded directly", models.ErrInvalidInput, input.Type)
	}

	date := input.Date
	if date.IsZero() {
		date = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning record transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := getWallet(ctx, tx, userID, input.WalletID)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(signedEffect(input.Type, input.Amount))
	if !s.allowNegativeBalance && newBalance.IsNegative() {
		return nil, fmt.Errorf("%w: balance %s cannot cover %s", models.ErrInsufficientFunds, wallet.Balance, input.Amount)
	}

	now := s.now()
	transaction := &models.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		WalletID:    wallet.ID,
		Amount:      input.Amount,
		Date:        date,
		Type:        input.Type,
		CategoryID:  input.CategoryID,
		Description: input.Description,
		CreatedAt:   now,
	}
	if err := insertTransaction(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("inserting transaction: %w", err)
	}
	if err := setWalletBalance(ctx, tx, wallet.ID, newBalance, now); err != nil {
		return nil, fmt.Errorf("updating balance of wallet %s: %w", wallet.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing record transaction: %w", err)
	}
	logger.L.Debug("Transaction recorded",
		"transactionID", transaction.ID, "walletID", wallet.ID, "type", transaction.Type, "amount", transaction.Amount)
	return transaction, nil
}

func (s *ledgerServiceImpl) GetTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) (*models.Transaction, error) {
	return getTransaction(ctx, s.db, userID, transactionID)
}

func (s *ledgerServiceImpl) ListTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE user_id = ?"
	args := []any{userID}
	if filter.WalletID != nil {
		query += " AND (wallet_id = ? OR to_wallet_id = ?)"
		args = append(args, filter.WalletID.String(), filter.WalletID.String())
	}
	if filter.Type != nil {
		query += " AND type = ?"
		args = append(args, string(*filter.Type))
	}
	if filter.From != nil {
		query += " AND date >= ?"
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		query += " AND date <= ?"
		args = append(args, formatTime(*filter.To))
	}
	query += " ORDER BY date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction for user %d: %w", userID, err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions for user %d: %w", userID, err)
	}
	return transactions, nil
}

// UpdateTransaction mutates date, description and category freely. An amount
// change is a balance correction: the old effect is reversed and the new one
// applied in the same write transaction, exactly like delete+recreate.
func (s *ledgerServiceImpl) UpdateTransaction(ctx context.Context, userID int64, transactionID uuid.UUID, input UpdateTransactionInput) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning update transaction: %w", err)
	}
	defer tx.Rollback()

	transaction, err := getTransaction(ctx, tx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	if transaction.Type == models.TransactionTypeTransfer && input.Amount != nil {
		return nil, fmt.Errorf("%w: transfer amounts cannot be edited, delete and recreate the transfer", models.ErrInvalidTransfer)
	}
	if transaction.Type == models.TransactionTypeAdjustment && input.CategoryID != nil {
		// Adjustments are system-generated and stay outside category flows.
		return nil, fmt.Errorf("%w: adjustments cannot be categorized", models.ErrInvalidInput)
	}

	if input.Amount != nil && !input.Amount.Equal(transaction.Amount) {
		if !input.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidInput)
		}
		wallet, err := getWallet(ctx, tx, userID, transaction.WalletID)
		if err != nil {
			if err == models.ErrWalletNotFound {
				logger.L.Error("Data integrity violation: transaction references missing wallet",
					"transactionID", transaction.ID, "walletID", transaction.WalletID)
			}
			return nil, err
		}
		newBalance := wallet.Balance.
			Sub(signedEffect(transaction.Type, transaction.Amount)).
			Add(signedEffect(transaction.Type, *input.Amount))
		if !s.allowNegativeBalance && newBalance.IsNegative() {
			return nil, fmt.Errorf("%w: correction would overdraw wallet %s", models.ErrInsufficientFunds, wallet.ID)
		}
		if err := setWalletBalance(ctx, tx, wallet.ID, newBalance, s.now()); err != nil {
			return nil, fmt.Errorf("updating balance of wallet %s: %w", wallet.ID, err)
		}
		transaction.Amount = *input.Amount
	}

	if input.Date != nil {
		transaction.Date = *input.Date
	}
	if input.Description != nil {
		transaction.Description = *input.Description
	}
	if input.CategoryID != nil {
		if *input.CategoryID == "" {
			transaction.CategoryID = nil
		} else {
			transaction.CategoryID = input.CategoryID
		}
	}

	var categoryID interface{}
	if transaction.CategoryID != nil {
		categoryID = *transaction.CategoryID
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE transactions SET amount = ?, date = ?, category_id = ?, description = ? WHERE id = ?",
		transaction.Amount.String(), formatTime(transaction.Date), categoryID, transaction.Description,
		transaction.ID.String())
	if err != nil {
		return nil, fmt.Errorf("updating transaction %s: %w", transactionID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing update transaction: %w", err)
	}
	return transaction, nil
}

// DeleteTransaction reverses the transaction's balance effect and removes the
// row in one atomic unit. Transfer-type rows are dispatched to the transfer
// service, which reverses both wallets and the transfer detail row.
func (s *ledgerServiceImpl) DeleteTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) error {
	transaction, err := getTransaction(ctx, s.db, userID, transactionID)
	if err != nil {
		return err
	}

	if transaction.Type == models.TransactionTypeTransfer {
		return s.transfers.DeleteTransfer(ctx, userID, transactionID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read inside the write transaction; the row may have changed or gone
	// since the dispatch check.
	transaction, err = getTransaction(ctx, tx, userID, transactionID)
	if err != nil {
		return err
	}

	wallet, err := getWallet(ctx, tx, userID, transaction.WalletID)
	if err != nil {
		if err == models.ErrWalletNotFound {
			logger.L.Error("Data integrity violation: transaction references missing wallet",
				"transactionID", transaction.ID, "walletID", transaction.WalletID)
			return fmt.Errorf("transaction %s references missing wallet %s: %w",
				transaction.ID, transaction.WalletID, models.ErrWalletNotFound)
		}
		return err
	}

	newBalance := wallet.Balance.Sub(signedEffect(transaction.Type, transaction.Amount))
	if err := setWalletBalance(ctx, tx, wallet.ID, newBalance, s.now()); err != nil {
		return fmt.Errorf("reversing balance effect on wallet %s: %w", wallet.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", transaction.ID.String()); err != nil {
		return fmt.Errorf("deleting transaction %s: %w", transaction.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete transaction: %w", err)
	}
	logger.L.Debug("Transaction deleted",
		"transactionID", transaction.ID, "walletID", wallet.ID, "type", transaction.Type, "amount", transaction.Amount)
	return nil
}
