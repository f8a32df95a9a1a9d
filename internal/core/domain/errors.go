package domain

import "errors"

// Sentinel errors for account and transfer rules. Callers match them with
// errors.Is; internal/errmap turns them into apperror codes.
var (
	ErrMissingAccount    = errors.New("account not found")
	ErrNonPositiveAmount = errors.New("transfer amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrSelfTransfer      = errors.New("source and destination account are the same")
	ErrLockTimeout       = errors.New("timed out acquiring account lock")
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrNegativeBalance   = errors.New("balance must not be negative")
	ErrInvalidAccountID  = errors.New("account id must not be empty")

	// Idempotency-Key conflicts.
	ErrTransferInProgress   = errors.New("transfer with this idempotency key is in progress")
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with a different request")
)
