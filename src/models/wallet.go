package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a money container in exactly one currency. The balance is never
// written directly by API consumers; every change flows through a transaction
// or transfer so the ledger always explains the current value.
type Wallet struct {
	ID                uuid.UUID       `json:"id"`
	UserID            int64           `json:"user_id"` // owner ID issued by the external auth layer
	Name              string          `json:"name"`
	Currency          string          `json:"currency"` // ISO 4217 code, uppercase
	Balance           decimal.Decimal `json:"balance"`
	IsSavingAccount   bool            `json:"is_saving_account"`
	SavingAccountGoal decimal.Decimal `json:"saving_account_goal"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
