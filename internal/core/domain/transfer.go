package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferRequest is one boundary call to move funds between two accounts.
// Amount is unvalidated; the executor rejects non-positive values.
type TransferRequest struct {
	FromAccountID  string
	ToAccountID    string
	Amount         decimal.Decimal
	IdempotencyKey string // optional; empty disables replay protection
	Subject        string // authenticated operator; scopes IdempotencyKey
}

// Transfer records a committed transfer.
type Transfer struct {
	ID            uuid.UUID       `json:"id"`
	FromAccountID string          `json:"account_from_id"`
	ToAccountID   string          `json:"account_to_id"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SameRequest reports whether req asks for the transfer t recorded. A reused
// Idempotency-Key must carry the same accounts and amount.
func (t *Transfer) SameRequest(req TransferRequest) bool {
	return t.FromAccountID == req.FromAccountID &&
		t.ToAccountID == req.ToAccountID &&
		t.Amount.Equal(req.Amount)
}

// BuildIdempotencyKey namespaces a client-supplied key by operator, so two
// operators never share a key. Requests without a subject share "anonymous".
func BuildIdempotencyKey(subject, key string) string {
	if subject == "" {
		subject = "anonymous"
	}
	return "transfer:" + subject + ":" + key
}
