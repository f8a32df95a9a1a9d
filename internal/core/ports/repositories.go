package ports

import (
	"context"

	"account-transfer-service/internal/core/domain"
)

// AccountRegistry maps account ids to live account handles.
// GetAccount returns nil, nil when the id is unknown.
type AccountRegistry interface {
	Create(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	List(ctx context.Context) ([]*domain.Account, error)
}

// AuditRepository persists audit entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}
