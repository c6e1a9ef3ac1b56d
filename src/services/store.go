package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/models"
)

// sqlTimeLayout is how timestamps are stored; RFC3339 in UTC sorts
// lexicographically, so date filters work as plain string comparisons.
const sqlTimeLayout = time.RFC3339Nano

func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqlTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqlTimeLayout, s)
}

// querier is satisfied by both *sql.DB and *sql.Tx, so lookups can run
// inside or outside a write transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const walletColumns = "id, user_id, name, currency, balance, is_saving_account, saving_account_goal, created_at, updated_at"

func scanWallet(row *sql.Row) (*models.Wallet, error) {
	var w models.Wallet
	var id, balance, goal, createdAt, updatedAt string
	err := row.Scan(&id, &w.UserID, &w.Name, &w.Currency, &balance, &w.IsSavingAccount, &goal, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return fillWallet(&w, id, balance, goal, createdAt, updatedAt)
}

func scanWalletRows(rows *sql.Rows) (*models.Wallet, error) {
	var w models.Wallet
	var id, balance, goal, createdAt, updatedAt string
	err := rows.Scan(&id, &w.UserID, &w.Name, &w.Currency, &balance, &w.IsSavingAccount, &goal, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	return fillWallet(&w, id, balance, goal, createdAt, updatedAt)
}

func fillWallet(w *models.Wallet, id, balance, goal, createdAt, updatedAt string) (*models.Wallet, error) {
	var err error
	if w.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing wallet id %q: %w", id, err)
	}
	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parsing wallet balance %q: %w", balance, err)
	}
	if w.SavingAccountGoal, err = decimal.NewFromString(goal); err != nil {
		return nil, fmt.Errorf("parsing wallet goal %q: %w", goal, err)
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing wallet created_at %q: %w", createdAt, err)
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing wallet updated_at %q: %w", updatedAt, err)
	}
	return w, nil
}

// getWallet loads a wallet owned by userID, mapping a missing row to
// models.ErrWalletNotFound.
func getWallet(ctx context.Context, q querier, userID int64, walletID uuid.UUID) (*models.Wallet, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE id = ? AND user_id = ?",
		walletID.String(), userID)
	w, err := scanWallet(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// setWalletBalance writes a recomputed balance. Callers always compute the
// new value inside the same serialized write transaction that inserts or
// deletes the justifying transaction row.
func setWalletBalance(ctx context.Context, q querier, walletID uuid.UUID, balance decimal.Decimal, now time.Time) error {
	res, err := q.ExecContext(ctx,
		"UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?",
		balance.String(), formatTime(now), walletID.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrWalletNotFound
	}
	return nil
}

const transactionColumns = "id, user_id, wallet_id, to_wallet_id, amount, date, type, category_id, description, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var id, walletID, amount, date, createdAt string
	var toWalletID, categoryID sql.NullString
	var txType string
	err := row.Scan(&id, &t.UserID, &walletID, &toWalletID, &amount, &date, &txType, &categoryID, &t.Description, &createdAt)
	if err != nil {
		return nil, err
	}
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parsing transaction id %q: %w", id, err)
	}
	if t.WalletID, err = uuid.Parse(walletID); err != nil {
		return nil, fmt.Errorf("parsing transaction wallet id %q: %w", walletID, err)
	}
	if toWalletID.Valid {
		to, err := uuid.Parse(toWalletID.String)
		if err != nil {
			return nil, fmt.Errorf("parsing transaction to_wallet_id %q: %w", toWalletID.String, err)
		}
		t.ToWalletID = &to
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing transaction amount %q: %w", amount, err)
	}
	if t.Date, err = parseTime(date); err != nil {
		return nil, fmt.Errorf("parsing transaction date %q: %w", date, err)
	}
	t.Type = models.TransactionType(txType)
	if categoryID.Valid {
		c := categoryID.String
		t.CategoryID = &c
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing transaction created_at %q: %w", createdAt, err)
	}
	return &t, nil
}

// getTransaction loads a transaction owned by userID, mapping a missing row
// to models.ErrTransactionNotFound.
func getTransaction(ctx context.Context, q querier, userID int64, transactionID uuid.UUID) (*models.Transaction, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?",
		transactionID.String(), userID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func insertTransaction(ctx context.Context, q querier, t *models.Transaction) error {
	var toWalletID, categoryID interface{}
	if t.ToWalletID != nil {
		toWalletID = t.ToWalletID.String()
	}
	if t.CategoryID != nil {
		categoryID = *t.CategoryID
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, wallet_id, to_wallet_id, amount, date, type, category_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID, t.WalletID.String(), toWalletID,
		t.Amount.String(), formatTime(t.Date), string(t.Type), categoryID, t.Description, formatTime(t.CreatedAt))
	return err
}
