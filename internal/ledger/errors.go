package ledger

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("duplicate reference")
	ErrNotFound            = errors.New("not found")
	ErrInvariantViolation  = errors.New("ledger invariant violation")
	// ErrAlreadyProcessed is an idempotent no-op, not a user-facing failure.
	ErrAlreadyProcessed = errors.New("transaction already processed")
)
