package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/username/walletfolio/backend/src/models"
)

// RateResult is a successful exchange rate lookup. Stale is a warning flag,
// not an error: a stale-but-present snapshot is still served.
type RateResult struct {
	Rate      decimal.Decimal
	FetchedAt time.Time
	Stale     bool
}

// RateProvider is the external currency-rate HTTP API. Implementations must
// bound their calls with the passed context.
type RateProvider interface {
	// FetchRates returns the full conversion table for one base currency.
	FetchRates(ctx context.Context, baseCurrency string) (map[string]decimal.Decimal, error)
	// RemainingQuota returns how many provider requests are left in the current window.
	RemainingQuota(ctx context.Context) (int, error)
}

// ExchangeRateService answers rate(from->to) lookups from cached snapshots,
// refreshing lazily and serving stale values when the provider is unreachable.
type ExchangeRateService interface {
	GetCurrentExchangeRate(ctx context.Context, fromCurrency, toCurrency string) (RateResult, error)
}

type CreateWalletInput struct {
	Name              string
	Currency          string
	OpeningBalance    decimal.Decimal // becomes an adjustment transaction when positive
	IsSavingAccount   bool
	SavingAccountGoal decimal.Decimal
}

type UpdateWalletInput struct {
	Name              *string
	Currency          *string // only while the wallet has no transactions
	IsSavingAccount   *bool
	SavingAccountGoal *decimal.Decimal
}

// WalletService owns wallet lifecycle. Balances are never set directly
// through it; the opening balance goes through an adjustment transaction.
type WalletService interface {
	CreateWallet(ctx context.Context, userID int64, input CreateWalletInput) (*models.Wallet, error)
	GetWallet(ctx context.Context, userID int64, walletID uuid.UUID) (*models.Wallet, error)
	ListWallets(ctx context.Context, userID int64) ([]models.Wallet, error)
	UpdateWallet(ctx context.Context, userID int64, walletID uuid.UUID, input UpdateWalletInput) (*models.Wallet, error)
	DeleteWallet(ctx context.Context, userID int64, walletID uuid.UUID) error
}

type RecordTransactionInput struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal // positive magnitude
	Date        time.Time
	Type        models.TransactionType // income, expense or adjustment
	CategoryID  *string
	Description string
}

type UpdateTransactionInput struct {
	Amount      *decimal.Decimal // reverses the old effect and applies the new one atomically
	Date        *time.Time
	CategoryID  *string // pointer to empty string clears the category
	Description *string
}

type TransactionFilter struct {
	WalletID *uuid.UUID
	Type     *models.TransactionType
	From     *time.Time
	To       *time.Time
}

// LedgerService applies and reverses the balance effect of single-wallet
// transactions. Transaction row and wallet balance change together or not at all.
type LedgerService interface {
	RecordTransaction(ctx context.Context, userID int64, input RecordTransactionInput) (*models.Transaction, error)
	GetTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64, filter TransactionFilter) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID int64, transactionID uuid.UUID, input UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) error
}

type CreateTransferInput struct {
	FromWalletID uuid.UUID
	ToWalletID   uuid.UUID
	Amount       decimal.Decimal // magnitude, in the source wallet's currency
	Date         time.Time
	Description  string
}

// TransferService moves value between two wallets, possibly across
// currencies, as one atomic unit spanning both wallet rows, one transaction
// row and one transfer row.
type TransferService interface {
	CreateTransfer(ctx context.Context, userID int64, input CreateTransferInput) (*models.Transaction, error)
	GetTransferByTransaction(ctx context.Context, userID int64, transactionID uuid.UUID) (*models.Transfer, error)
	DeleteTransfer(ctx context.Context, userID int64, transactionID uuid.UUID) error
}

// SavingsService is the read-only composition over wallets and exchange
// rates that powers the savings view.
type SavingsService interface {
	GetSavingsSummary(ctx context.Context, userID int64, mainCurrency string) (*models.SavingsSummary, error)
}
