package memory

import (
	"context"
	"sort"
	"sync"

	"account-transfer-service/internal/core/domain"
)

// AccountRegistry implements ports.AccountRegistry with an in-process map.
// The registry lock guards only the map; balances are guarded by each
// account's own lock.
type AccountRegistry struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewAccountRegistry creates an empty registry.
func NewAccountRegistry() *AccountRegistry {
	return &AccountRegistry{accounts: make(map[string]*domain.Account)}
}

// Create stores a new account. The id must not be registered yet.
func (r *AccountRegistry) Create(_ context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[acc.ID()]; ok {
		return domain.ErrDuplicateAccount
	}
	r.accounts[acc.ID()] = acc
	return nil
}

// GetAccount returns the live account for id, or nil, nil if it is unknown.
func (r *AccountRegistry) GetAccount(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accounts[id], nil
}

// List returns all accounts ordered by id.
func (r *AccountRegistry) List(_ context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	accounts := make([]*domain.Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accounts = append(accounts, acc)
	}
	r.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID() < accounts[j].ID()
	})
	return accounts, nil
}

// Len returns the number of registered accounts.
func (r *AccountRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}
