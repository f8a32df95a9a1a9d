package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/internal/errmap"
	"account-transfer-service/internal/metrics"
	"account-transfer-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultIdempotencyTTL = 24 * time.Hour

// TransferServiceImpl implements ports.TransferService.
type TransferServiceImpl struct {
	registry       ports.AccountRegistry
	executor       ports.TransferExecutor
	idempCache     ports.IdempotencyCache // nil = idempotency keys are ignored
	idempotencyTTL time.Duration
	metrics        *metrics.Metrics
	log            zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	registry ports.AccountRegistry,
	executor ports.TransferExecutor,
	idempCache ports.IdempotencyCache,
	idempotencyTTL time.Duration,
	m *metrics.Metrics,
	log zerolog.Logger,
) *TransferServiceImpl {
	if idempotencyTTL <= 0 {
		idempotencyTTL = defaultIdempotencyTTL
	}
	return &TransferServiceImpl{
		registry:       registry,
		executor:       executor,
		idempCache:     idempCache,
		idempotencyTTL: idempotencyTTL,
		metrics:        m,
		log:            log,
	}
}

// Transfer resolves both accounts and runs the transfer. With an idempotency
// key, the key is claimed first: one request executes, a repeat returns the
// committed result, and a repeat that arrives while the first is running
// gets IDEM_001.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error) {
	if req.IdempotencyKey == "" || s.idempCache == nil {
		return s.execute(ctx, req)
	}

	idempKey := domain.BuildIdempotencyKey(req.Subject, req.IdempotencyKey)

	claimed, err := s.idempCache.Claim(ctx, idempKey, s.idempotencyTTL)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("idempotency claim failed, processing transfer")
		return s.execute(ctx, req)
	}
	if !claimed {
		return s.replay(ctx, idempKey, req)
	}

	// The claim outlives the request: a client that disconnects after the
	// funds moved must still find the result.
	storeCtx := context.WithoutCancel(ctx)

	transfer, err := s.execute(ctx, req)
	if err != nil {
		if relErr := s.idempCache.Release(storeCtx, idempKey); relErr != nil {
			s.log.Warn().Err(relErr).Str("key", idempKey).Msg("failed to release idempotency claim")
		}
		return nil, err
	}

	respJSON, err := json.Marshal(transfer)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to marshal transfer for idempotency cache")
	} else if err := s.idempCache.Set(storeCtx, idempKey, respJSON, s.idempotencyTTL); err != nil {
		// The pending claim stays until it expires, so retries get IDEM_001
		// rather than a second execution.
		s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency result")
	}

	return transfer, nil
}

// execute resolves both ids and moves the funds.
func (s *TransferServiceImpl) execute(ctx context.Context, req domain.TransferRequest) (*domain.Transfer, error) {
	from, err := s.resolve(ctx, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.resolve(ctx, req.ToAccountID)
	if err != nil {
		return nil, err
	}

	if err := s.executor.Transfer(ctx, from, to, req.Amount); err != nil {
		return nil, errmap.FromDomain(err)
	}

	return &domain.Transfer{
		ID:            uuid.New(),
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// replay answers a request whose key was already claimed.
func (s *TransferServiceImpl) replay(ctx context.Context, idempKey string, req domain.TransferRequest) (*domain.Transfer, error) {
	cached, err := s.idempCache.Get(ctx, idempKey)
	switch {
	case errors.Is(err, domain.ErrTransferInProgress):
		return nil, errmap.TransferInProgress()
	case err != nil:
		return nil, apperror.InternalError(fmt.Errorf("idempotency lookup: %w", err))
	case cached == nil:
		// Released or expired between Claim and Get; the client retries.
		return nil, errmap.TransferInProgress()
	}

	transfer, err := s.unmarshalCachedTransfer(cached)
	if err != nil {
		return nil, err
	}
	if !transfer.SameRequest(req) {
		return nil, errmap.IdempotencyKeyReused()
	}

	s.metrics.IdempotentReplay()
	return transfer, nil
}

// resolve maps an id to a live account. An unknown id is MissingAccount.
func (s *TransferServiceImpl) resolve(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, errmap.MissingAccount()
	}
	acc, err := s.registry.GetAccount(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup account %s: %w", id, err))
	}
	if acc == nil {
		return nil, errmap.MissingAccount()
	}
	return acc, nil
}

// unmarshalCachedTransfer deserializes a cached transfer.
func (s *TransferServiceImpl) unmarshalCachedTransfer(data []byte) (*domain.Transfer, error) {
	transfer := &domain.Transfer{}
	if err := json.Unmarshal(data, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached transfer: %w", err))
	}
	return transfer, nil
}
