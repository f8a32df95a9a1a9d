package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Account is an in-memory balance holder with its own lock.
//
// The lock is exposed rather than hidden behind account methods because a
// transfer has to hold two accounts' locks at once. Balance and SetBalance do
// not lock; callers hold the lock around any read-modify-write.
type Account struct {
	id      string
	balance decimal.Decimal

	// sem is a one-slot semaphore. A channel instead of sync.Mutex lets
	// LockContext give up when the caller's context is done.
	sem chan struct{}
}

// AccountSnapshot is a consistent copy of an account's state.
type AccountSnapshot struct {
	ID      string          `json:"account_id"`
	Balance decimal.Decimal `json:"balance"`
}

// NewAccount creates an account with an opening balance.
func NewAccount(id string, balance decimal.Decimal) (*Account, error) {
	if id == "" {
		return nil, ErrInvalidAccountID
	}
	if balance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	return &Account{
		id:      id,
		balance: balance,
		sem:     make(chan struct{}, 1),
	}, nil
}

// ID returns the immutable account identifier.
func (a *Account) ID() string {
	return a.id
}

// Balance returns the current balance. Hold the lock for a consistent read.
func (a *Account) Balance() decimal.Decimal {
	return a.balance
}

// SetBalance overwrites the balance. The caller must hold the lock.
func (a *Account) SetBalance(balance decimal.Decimal) {
	a.balance = balance
}

// Lock blocks until the account lock is acquired.
func (a *Account) Lock() {
	a.sem <- struct{}{}
}

// LockContext acquires the account lock or returns ctx.Err() if the context
// is done first.
func (a *Account) LockContext(ctx context.Context) error {
	// Prefer the lock when it is free even if ctx is already done.
	select {
	case a.sem <- struct{}{}:
		return nil
	default:
	}

	select {
	case a.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the account lock. Unlocking an unlocked account panics,
// the same as sync.Mutex.
func (a *Account) Unlock() {
	select {
	case <-a.sem:
	default:
		panic("domain: unlock of unlocked account " + a.id)
	}
}

// Snapshot returns the account state read under its lock.
func (a *Account) Snapshot() AccountSnapshot {
	a.Lock()
	defer a.Unlock()
	return AccountSnapshot{ID: a.id, Balance: a.balance}
}
