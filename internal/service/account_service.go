package service

import (
	"context"
	"fmt"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/internal/errmap"
	"account-transfer-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type accountService struct {
	registry ports.AccountRegistry
	log      zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(registry ports.AccountRegistry, log zerolog.Logger) ports.AccountService {
	return &accountService{registry: registry, log: log}
}

func (s *accountService) CreateAccount(ctx context.Context, id string, balance decimal.Decimal) (*domain.Account, error) {
	acc, err := domain.NewAccount(id, balance)
	if err != nil {
		return nil, errmap.FromDomain(err)
	}
	if err := s.registry.Create(ctx, acc); err != nil {
		return nil, errmap.FromDomain(err)
	}

	s.log.Info().
		Str("account_id", id).
		Str("balance", balance.String()).
		Msg("account created")

	return acc, nil
}

func (s *accountService) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	acc, err := s.registry.GetAccount(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup account %s: %w", id, err))
	}
	if acc == nil {
		return nil, errmap.MissingAccount()
	}
	return acc, nil
}

func (s *accountService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.registry.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list accounts: %w", err))
	}
	return accounts, nil
}
