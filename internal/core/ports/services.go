package ports

import (
	"context"
	"time"

	"account-transfer-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Notifier delivers a human-readable message about an account. Errors are
// observed by the caller but never undo a committed transfer.
type Notifier interface {
	Notify(ctx context.Context, account *domain.Account, message string) error
}

// TransferExecutor moves funds between two resolved accounts.
type TransferExecutor interface {
	Transfer(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) error
}

// IdempotencyCache stores transfer responses by idempotency key. A key is
// claimed before the transfer runs, so concurrent requests with the same key
// execute at most once.
type IdempotencyCache interface {
	// Claim reserves key. False means another request claimed it first.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the stored response JSON, nil if absent, or
	// domain.ErrTransferInProgress while the key is claimed without a result.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Release drops a claim that has no result yet.
	Release(ctx context.Context, key string) error
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
}

// --- Service Ports (Business Logic) ---

// AccountService manages account creation and lookup.
type AccountService interface {
	CreateAccount(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
}

// TransferService resolves account ids and runs the transfer.
type TransferService interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error)
}

// AuditService records audit entries for write operations.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}
