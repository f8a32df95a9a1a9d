// Package errmap turns account and transfer sentinels into apperror codes.
package errmap

import (
	"errors"
	"net/http"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/pkg/apperror"
)

// ---- Transfers (TRF) ----

func MissingAccount() *apperror.AppError {
	return apperror.Wrap("TRF_001", "Account not found", http.StatusNotFound, domain.ErrMissingAccount)
}

func NonPositiveAmount() *apperror.AppError {
	return apperror.Wrap("TRF_002", "We do not support overdrafts!", http.StatusBadRequest, domain.ErrNonPositiveAmount)
}

func InsufficientFunds() *apperror.AppError {
	return apperror.Wrap("TRF_003", "Insufficient balance", http.StatusUnprocessableEntity, domain.ErrInsufficientFunds)
}

func SelfTransfer() *apperror.AppError {
	return apperror.Wrap("TRF_004", "Cannot transfer to the same account", http.StatusBadRequest, domain.ErrSelfTransfer)
}

// ---- Idempotency (IDEM) ----

// TransferInProgress means another request holds the same Idempotency-Key
// and has not finished yet. Clients retry later with the same key.
func TransferInProgress() *apperror.AppError {
	return apperror.Wrap("IDEM_001", "A transfer with this Idempotency-Key is still in progress", http.StatusConflict, domain.ErrTransferInProgress)
}

func IdempotencyKeyReused() *apperror.AppError {
	return apperror.Wrap("IDEM_002", "Idempotency-Key was already used for a different transfer", http.StatusUnprocessableEntity, domain.ErrIdempotencyKeyReused)
}

// ---- Accounts (ACC) ----

func DuplicateAccount() *apperror.AppError {
	return apperror.Wrap("ACC_001", "Account id already exists", http.StatusConflict, domain.ErrDuplicateAccount)
}

func NegativeBalance() *apperror.AppError {
	return apperror.Wrap("ACC_002", "Initial balance must be positive.", http.StatusBadRequest, domain.ErrNegativeBalance)
}

func InvalidAccountID() *apperror.AppError {
	return apperror.Wrap("ACC_003", "Account id must not be empty", http.StatusBadRequest, domain.ErrInvalidAccountID)
}

// LockTimeout keeps the original cause (usually a context error) in the
// chain next to domain.ErrLockTimeout.
func LockTimeout(err error) *apperror.AppError {
	return apperror.Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err)
}

// FromDomain converts an error returned by the account or transfer core into
// an AppError. Errors that already are AppErrors pass through; unknown errors
// become SYS_001.
func FromDomain(err error) *apperror.AppError {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrMissingAccount):
		return MissingAccount()
	case errors.Is(err, domain.ErrNonPositiveAmount):
		return NonPositiveAmount()
	case errors.Is(err, domain.ErrInsufficientFunds):
		return InsufficientFunds()
	case errors.Is(err, domain.ErrSelfTransfer):
		return SelfTransfer()
	case errors.Is(err, domain.ErrLockTimeout):
		return LockTimeout(err)
	case errors.Is(err, domain.ErrTransferInProgress):
		return TransferInProgress()
	case errors.Is(err, domain.ErrIdempotencyKeyReused):
		return IdempotencyKeyReused()
	case errors.Is(err, domain.ErrDuplicateAccount):
		return DuplicateAccount()
	case errors.Is(err, domain.ErrNegativeBalance):
		return NegativeBalance()
	case errors.Is(err, domain.ErrInvalidAccountID):
		return InvalidAccountID()
	}
	return apperror.InternalError(err)
}
