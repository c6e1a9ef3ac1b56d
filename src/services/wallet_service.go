package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/walletfolio/backend/src/logger"
	"github.com/username/walletfolio/backend/src/models"
)

type walletServiceImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewWalletService creates the wallet lifecycle service.
func NewWalletService(db *sql.DB) WalletService {
	return &walletServiceImpl{
		db:  db,
		now: time.Now,
	}
}

func (s *walletServiceImpl) CreateWallet(ctx context.Context, userID int64, input CreateWalletInput) (*models.Wallet, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: wallet name is required", models.ErrInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", models.ErrInvalidInput, input.Currency)
	}
	if input.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", models.ErrInvalidInput)
	}
	if input.SavingAccountGoal.IsNegative() {
		return nil, fmt.Errorf("%w: saving goal cannot be negative", models.ErrInvalidInput)
	}

	now := s.now()
	wallet := &models.Wallet{
		ID:                uuid.New(),
		UserID:            userID,
		Name:              name,
		Currency:          currency,
		Balance:           input.OpeningBalance,
		IsSavingAccount:   input.IsSavingAccount,
		SavingAccountGoal: input.SavingAccountGoal,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning wallet create transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO wallets (id, user_id, name, currency, balance, is_saving_account, saving_account_goal, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		wallet.ID.String(), userID, name, currency, wallet.Balance.String(),
		wallet.IsSavingAccount, wallet.SavingAccountGoal.String(), formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting wallet: %w", err)
	}

	// A non-zero opening balance is itself a ledger event: the wallet balance
	// and the adjustment row that justifies it commit together.
	if input.OpeningBalance.IsPositive() {
		adjustment := &models.Transaction{
			ID:          uuid.New(),
			UserID:      userID,
			WalletID:    wallet.ID,
			Amount:      input.OpeningBalance,
			Date:        now,
			Type:        models.TransactionTypeAdjustment,
			Description: "Opening balance",
			CreatedAt:   now,
		}
		if err := insertTransaction(ctx, tx, adjustment); err != nil {
			return nil, fmt.Errorf("inserting opening balance adjustment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing wallet create: %w", err)
	}
	logger.L.Info("Wallet created", "walletID", wallet.ID, "userID", userID, "currency", currency, "openingBalance", wallet.Balance)
	return wallet, nil
}

func (s *walletServiceImpl) GetWallet(ctx context.Context, userID int64, walletID uuid.UUID) (*models.Wallet, error) {
	return getWallet(ctx, s.db, userID, walletID)
}

func (s *walletServiceImpl) ListWallets(ctx context.Context, userID int64) ([]models.Wallet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("querying wallets for user %d: %w", userID, err)
	}
	defer rows.Close()

	wallets := []models.Wallet{}
	for rows.Next() {
		w, err := scanWalletRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning wallet for user %d: %w", userID, err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating wallets for user %d: %w", userID, err)
	}
	return wallets, nil
}

func (s *walletServiceImpl) UpdateWallet(ctx context.Context, userID int64, walletID uuid.UUID, input UpdateWalletInput) (*models.Wallet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning wallet update transaction: %w", err)
	}
	defer tx.Rollback()

	wallet, err := getWallet(ctx, tx, userID, walletID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: wallet name is required", models.ErrInvalidInput)
		}
		wallet.Name = name
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if len(currency) != 3 {
			return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", models.ErrInvalidInput, *input.Currency)
		}
		if currency != wallet.Currency {
			// Changing the unit of an existing ledger would silently revalue
			// history; only an empty wallet may switch currency.
			count, err := countWalletTransactions(ctx, tx, walletID)
			if err != nil {
				return nil, err
			}
			if count > 0 {
				return nil, fmt.Errorf("%w: cannot change currency of a wallet with transactions", models.ErrWalletNotEmpty)
			}
			wallet.Currency = currency
		}
	}
	if input.IsSavingAccount != nil {
		wallet.IsSavingAccount = *input.IsSavingAccount
	}
	if input.SavingAccountGoal != nil {
		if input.SavingAccountGoal.IsNegative() {
			return nil, fmt.Errorf("%w: saving goal cannot be negative", models.ErrInvalidInput)
		}
		wallet.SavingAccountGoal = *input.SavingAccountGoal
	}
	wallet.UpdatedAt = s.now()

	_, err = tx.ExecContext(ctx,
		`UPDATE wallets SET name = ?, currency = ?, is_saving_account = ?, saving_account_goal = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		wallet.Name, wallet.Currency, wallet.IsSavingAccount, wallet.SavingAccountGoal.String(),
		formatTime(wallet.UpdatedAt), walletID.String(), userID)
	if err != nil {
		return nil, fmt.Errorf("updating wallet %s: %w", walletID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing wallet update: %w", err)
	}
	return wallet, nil
}

// DeleteWallet removes a wallet only when it has no ledger history, incoming
// or outgoing. The ledger is the audit trail; it is never cascaded away.
func (s *walletServiceImpl) DeleteWallet(ctx context.Context, userID int64, walletID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning wallet delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := getWallet(ctx, tx, userID, walletID); err != nil {
		return err
	}

	count, err := countWalletTransactions(ctx, tx, walletID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: delete its %d transactions first", models.ErrWalletNotEmpty, count)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM wallets WHERE id = ? AND user_id = ?", walletID.String(), userID); err != nil {
		return fmt.Errorf("deleting wallet %s: %w", walletID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing wallet delete: %w", err)
	}
	logger.L.Info("Wallet deleted", "walletID", walletID, "userID", userID)
	return nil
}

func countWalletTransactions(ctx context.Context, q querier, walletID uuid.UUID) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE wallet_id = ? OR to_wallet_id = ?",
		walletID.String(), walletID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting transactions for wallet %s: %w", walletID, err)
	}
	return count, nil
}
