package ledger

import "errors"

var (
	ErrTransactionNotFound = errors.New("ledger: transaction not found")
	ErrInvalidAmount       = errors.New("ledger: amount must be a finite non-negative number")
	ErrInvalidCurrency     = errors.New("ledger: currency code is empty")
	ErrIngestionInProgress = errors.New("ledger: another ingestion is already in progress")
	ErrClearNotConfirmed   = errors.New("ledger: clear requires the confirmation word " + ClearConfirmation)
	ErrEmptyLedger         = errors.New("ledger: no transactions to share")
	ErrInvalidBackup       = errors.New("ledger: invalid backup")
)
