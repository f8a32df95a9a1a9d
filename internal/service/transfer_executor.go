package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports"
	"account-transfer-service/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransferExecutor implements ports.TransferExecutor with per-account locks
// acquired in account-id order.
type TransferExecutor struct {
	notifier    ports.Notifier
	lockTimeout time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewTransferExecutor creates a TransferExecutor. A lockTimeout of zero waits
// for the locks until ctx is done. notifier and m may be nil.
func NewTransferExecutor(notifier ports.Notifier, lockTimeout time.Duration, m *metrics.Metrics, log zerolog.Logger) *TransferExecutor {
	return &TransferExecutor{
		notifier:    notifier,
		lockTimeout: lockTimeout,
		metrics:     m,
		log:         log,
	}
}

// Transfer moves amount from one account to another.
//
// Both locks are held while the amount and the source balance are validated
// and while both balances change, so a failed call never mutates anything.
// Notifications run after the locks are released and cannot fail the call.
func (e *TransferExecutor) Transfer(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.metrics.ObserveTransfer(metrics.OutcomePanic, time.Since(start))
			panic(r)
		}
		e.metrics.ObserveTransfer(outcomeOf(err), time.Since(start))
	}()

	if from == nil || to == nil {
		return domain.ErrMissingAccount
	}
	if from.ID() == to.ID() {
		return domain.ErrSelfTransfer
	}

	if err := e.move(ctx, from, to, amount); err != nil {
		e.log.Debug().
			Err(err).
			Str("from", from.ID()).
			Str("to", to.ID()).
			Str("amount", amount.String()).
			Msg("transfer rejected")
		return err
	}

	e.log.Info().
		Str("from", from.ID()).
		Str("to", to.ID()).
		Str("amount", amount.String()).
		Dur("elapsed", time.Since(start)).
		Msg("transfer committed")

	e.notify(ctx, to, "credit", "Money credited to "+to.ID())
	e.notify(ctx, from, "debit", "Money debited from "+from.ID())

	return nil
}

// move is the critical section. The deferred release covers every return
// and a panic.
func (e *TransferExecutor) move(ctx context.Context, from, to *domain.Account, amount decimal.Decimal) error {
	release, err := e.lockPair(ctx, from, to)
	if err != nil {
		return err
	}
	defer release()

	if !amount.IsPositive() {
		return domain.ErrNonPositiveAmount
	}
	if from.Balance().LessThan(amount) {
		return domain.ErrInsufficientFunds
	}

	from.SetBalance(from.Balance().Sub(amount))
	to.SetBalance(to.Balance().Add(amount))
	return nil
}

// lockPair locks the account with the lexicographically smaller id first.
// Every caller orders the same pair the same way regardless of direction,
// so two transfers can never each hold one lock of a pair while waiting on
// the other.
func (e *TransferExecutor) lockPair(ctx context.Context, a, b *domain.Account) (func(), error) {
	first, second := a, b
	if b.ID() < a.ID() {
		first, second = b, a
	}

	if e.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.lockTimeout)
		defer cancel()
	}

	if err := first.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: account %s: %w", domain.ErrLockTimeout, first.ID(), err)
	}
	if err := second.LockContext(ctx); err != nil {
		first.Unlock()
		return nil, fmt.Errorf("%w: account %s: %w", domain.ErrLockTimeout, second.ID(), err)
	}

	return func() {
		second.Unlock()
		first.Unlock()
	}, nil
}

// notify calls the notifier for one side of a committed transfer. Errors and
// panics are logged and counted, never returned.
func (e *TransferExecutor) notify(ctx context.Context, account *domain.Account, side, message string) {
	if e.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.metrics.NotificationFailed(side)
			e.log.Error().
				Interface("panic", r).
				Str("account_id", account.ID()).
				Str("side", side).
				Msg("notifier panicked")
		}
	}()

	if err := e.notifier.Notify(ctx, account, message); err != nil {
		e.metrics.NotificationFailed(side)
		e.log.Warn().
			Err(err).
			Str("account_id", account.ID()).
			Str("side", side).
			Msg("notification failed")
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrMissingAccount):
		return metrics.OutcomeMissingAccount
	case errors.Is(err, domain.ErrSelfTransfer):
		return metrics.OutcomeSelfTransfer
	case errors.Is(err, domain.ErrNonPositiveAmount):
		return metrics.OutcomeNonPositiveAmount
	case errors.Is(err, domain.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrLockTimeout):
		return metrics.OutcomeLockTimeout
	default:
		return metrics.OutcomeInternal
	}
}
