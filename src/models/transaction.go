package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome     TransactionType = "income"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeAdjustment TransactionType = "adjustment" // system-generated opening balance
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer, TransactionTypeAdjustment:
		return true
	}
	return false
}

// Transaction is the single source of truth for one balance-affecting event.
// Amount is a magnitude; the sign of its effect on the wallet balance is
// derived from Type (income/adjustment add, expense subtracts, transfer
// subtracts from WalletID and credits ToWalletID via the linked Transfer row).
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      int64           `json:"user_id"`
	WalletID    uuid.UUID       `json:"wallet_id"`
	ToWalletID  *uuid.UUID      `json:"to_wallet_id,omitempty"` // set only for type=transfer
	Amount      decimal.Decimal `json:"amount"`                 // positive magnitude, in the source wallet's currency
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	CategoryID  *string         `json:"category_id,omitempty"` // nil for transfer/adjustment
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Transfer is the cross-wallet detail record attached 1:1 to a
// transfer-type Transaction. ExchangeRate is frozen at transfer time and
// never recomputed, so historical transfers stay reproducible as rates drift.
type Transfer struct {
	ID             uuid.UUID       `json:"id"`
	UserID         int64           `json:"user_id"`
	TransactionID  uuid.UUID       `json:"transaction_id"`
	FromWalletID   uuid.UUID       `json:"from_wallet_id"`
	ToWalletID     uuid.UUID       `json:"to_wallet_id"`
	AmountSent     decimal.Decimal `json:"amount_sent"`     // in fromWallet.currency
	AmountReceived decimal.Decimal `json:"amount_received"` // in toWallet.currency
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`   // amountReceived / amountSent at transfer time
	CreatedAt      time.Time       `json:"created_at"`
}
