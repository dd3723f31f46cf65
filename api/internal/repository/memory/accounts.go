// Package memory provides in-process implementations of the repository interfaces for
// local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/repository"
)

// Accounts stores accounts in a map guarded by a mutex. Email uniqueness is enforced under the lock.
type Accounts struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
	now     func() time.Time
}

var _ repository.AccountRepository = (*Accounts)(nil)

// NewAccounts constructs an empty store.
func NewAccounts() *Accounts {
	return &Accounts{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Accounts) CreateAccount(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[account.Email]; exists {
		return repository.ErrConflict
	}
	now := s.now()
	account.ID = uuid.NewString()
	account.CreatedAt = now
	account.UpdatedAt = now
	s.byID[account.ID] = clone(*account)
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *Accounts) GetAccountByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := clone(s.byID[id])
	return &a, nil
}

func (s *Accounts) GetAccountByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a := clone(stored)
	return &a, nil
}

func (s *Accounts) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Email != nil && *update.Email != stored.Email {
		if _, taken := s.byEmail[*update.Email]; taken {
			return nil, repository.ErrConflict
		}
		delete(s.byEmail, stored.Email)
		stored.Email = *update.Email
		s.byEmail[stored.Email] = id
	}
	if update.Name != nil {
		stored.Name = *update.Name
	}
	if update.ProfileImage != nil {
		stored.ProfileImage = *update.ProfileImage
	}
	stored.UpdatedAt = s.now()
	s.byID[id] = stored
	a := clone(stored)
	return &a, nil
}

func (s *Accounts) UpdatePasswordHash(_ context.Context, id string, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	stored.PasswordHash = append([]byte(nil), hash...)
	stored.UpdatedAt = s.now()
	s.byID[id] = stored
	return nil
}

func (s *Accounts) Ping(context.Context) error { return nil }

func clone(a domain.Account) domain.Account {
	a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	return a
}
