package models

import "errors"

var (
	// ErrInvalidInput indicates a request that fails validation before touching storage.
	ErrInvalidInput = errors.New("invalid input")
	// ErrWalletNotFound indicates the wallet does not exist or is not owned by the caller.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrTransactionNotFound indicates the transaction does not exist or is not owned by the caller.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransferNotFound indicates a transfer-type transaction has no transfer detail row.
	ErrTransferNotFound = errors.New("transfer not found")
	// ErrInvalidTransfer indicates a same-wallet transfer or a missing destination.
	ErrInvalidTransfer = errors.New("invalid transfer")
	// ErrExchangeRateUnavailable indicates no snapshot of any kind could serve the lookup.
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")
	// ErrRateLimitExceeded indicates the provider quota guard refused a refresh.
	ErrRateLimitExceeded = errors.New("rate provider quota exceeded")
	// ErrWalletNotEmpty indicates a wallet still has ledger history and cannot be deleted.
	ErrWalletNotEmpty = errors.New("wallet has transactions")
	// ErrInsufficientFunds indicates an operation would overdraw a wallet while
	// the negative-balance policy is disabled.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
