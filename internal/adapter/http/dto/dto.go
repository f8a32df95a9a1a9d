package dto

import (
	"account-transfer-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the request body for account creation.
type CreateAccountRequest struct {
	AccountID string          `json:"account_id" binding:"required,max=64,safe_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// TransferRequest is the request body for a transfer. Amount is validated
// by the transfer itself so that zero and negative amounts surface as
// NonPositiveAmount rather than a binding error.
type TransferRequest struct {
	AccountFromID string          `json:"account_from_id" binding:"required,max=64,safe_id"`
	AccountToID   string          `json:"account_to_id" binding:"required,max=64,safe_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// TransferResponse is the response body for a committed transfer.
type TransferResponse struct {
	ID            string `json:"id"`
	AccountFromID string `json:"account_from_id"`
	AccountToID   string `json:"account_to_id"`
	Amount        string `json:"amount"`
	CreatedAt     string `json:"created_at"`
}

// AccountListResponse wraps the account list.
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

// TokenResponse is printed by the token generator.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// NewAccountResponse reads the account under its lock.
func NewAccountResponse(acc *domain.Account) AccountResponse {
	snap := acc.Snapshot()
	return AccountResponse{
		AccountID: snap.ID,
		Balance:   snap.Balance.String(),
	}
}

// NewTransferResponse converts a committed transfer.
func NewTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		ID:            t.ID.String(),
		AccountFromID: t.FromAccountID,
		AccountToID:   t.ToAccountID,
		Amount:        t.Amount.String(),
		CreatedAt:     t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
