package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SavingsSummary aggregates all of a user's saving-flagged wallets,
// converted into one currency. Computed on demand, never persisted.
type SavingsSummary struct {
	Currency         string               `json:"currency"`
	TotalSavings     decimal.Decimal      `json:"total_savings"`
	TotalGoal        decimal.Decimal      `json:"total_goal"`
	Progress         decimal.Decimal      `json:"progress"` // percentage, 0 when no goal is set
	AmountLeftToGoal decimal.Decimal      `json:"amount_left_to_goal"`
	RatesStale       bool                 `json:"rates_stale"` // true if any conversion used a stale snapshot
	Wallets          []SavingsWalletEntry `json:"wallets"`
}

// SavingsWalletEntry is one saving wallet's contribution to the summary,
// expressed in the summary currency.
type SavingsWalletEntry struct {
	WalletID  uuid.UUID       `json:"wallet_id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"` // the wallet's own currency
	Balance   decimal.Decimal `json:"balance"`  // converted to the summary currency
	Goal      decimal.Decimal `json:"goal"`     // converted to the summary currency
	RateStale bool            `json:"rate_stale"`
}
