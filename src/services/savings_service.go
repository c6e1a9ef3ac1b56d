package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/models"
)

type savingsServiceImpl struct {
	db    *sql.DB
	rates ExchangeRateService
}

// NewSavingsService creates the read-only savings aggregator.
func NewSavingsService(db *sql.DB, rates ExchangeRateService) SavingsService {
	return &savingsServiceImpl{
		db:    db,
		rates: rates,
	}
}

var oneHundred = decimal.NewFromInt(100)

// GetSavingsSummary converts every saving-flagged wallet's balance and goal
// into mainCurrency and sums them. Pure read; recomputed on demand.
func (s *savingsServiceImpl) GetSavingsSummary(ctx context.Context, userID int64, mainCurrency string) (*models.SavingsSummary, error) {
	currency := normalizeCurrency(mainCurrency)
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code, got %q", models.ErrInvalidInput, mainCurrency)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+walletColumns+" FROM wallets WHERE user_id = ? AND is_saving_account = TRUE ORDER BY created_at, id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying saving wallets for user %d: %w", userID, err)
	}
	defer rows.Close()

	summary := &models.SavingsSummary{
		Currency: currency,
		Wallets:  []models.SavingsWalletEntry{},
	}
	for rows.Next() {
		w, err := scanWalletRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning saving wallet for user %d: %w", userID, err)
		}

		rateResult, err := s.rates.GetCurrentExchangeRate(ctx, w.Currency, currency)
		if err != nil {
			return nil, fmt.Errorf("converting wallet %s from %s to %s: %w", w.ID, w.Currency, currency, err)
		}

		entry := models.SavingsWalletEntry{
			WalletID:  w.ID,
			Name:      w.Name,
			Currency:  w.Currency,
			Balance:   w.Balance.Mul(rateResult.Rate),
			Goal:      w.SavingAccountGoal.Mul(rateResult.Rate),
			RateStale: rateResult.Stale,
		}
		summary.Wallets = append(summary.Wallets, entry)
		summary.TotalSavings = summary.TotalSavings.Add(entry.Balance)
		summary.TotalGoal = summary.TotalGoal.Add(entry.Goal)
		if entry.RateStale {
			summary.RatesStale = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saving wallets for user %d: %w", userID, err)
	}

	if summary.TotalGoal.IsPositive() {
		summary.Progress = summary.TotalSavings.Div(summary.TotalGoal).Mul(oneHundred)
		left := summary.TotalGoal.Sub(summary.TotalSavings)
		if left.IsNegative() {
			left = decimal.Zero
		}
		summary.AmountLeftToGoal = left
	}
	return summary, nil
}
