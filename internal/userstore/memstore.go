package userstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemory() *Memory {
	return &Memory{accounts: make(map[string]Account)}
}

func (m *Memory) FindByUserID(_ context.Context, userID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (m *Memory) Insert(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[account.UserID]; ok {
		return fmt.Errorf("duplicate user id: %s", account.UserID)
	}
	stored := *account
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.accounts[account.UserID] = stored
	return nil
}

func (m *Memory) Upsert(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *account
	if prev, ok := m.accounts[account.UserID]; ok {
		stored.CreatedAt = prev.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.accounts[account.UserID] = stored
	return nil
}

func (m *Memory) SetInProgress(_ context.Context, userID string, inProgress bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return fmt.Errorf("unknown user id: %s", userID)
	}
	account.InProgress = inProgress
	m.accounts[userID] = account
	return nil
}
