package repository

import (
	"context"
	"time"

	"github.com/splax/accounts/api/internal/domain"
)

// AccountRepository persists accounts. Implementations enforce email uniqueness themselves and
// report violations as ErrConflict.
type AccountRepository interface {
	// CreateAccount stores account and assigns its ID and timestamps.
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id string) (*domain.Account, error)
	// UpdateProfile applies update and returns the stored account after the write.
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error
	Ping(ctx context.Context) error
}

// ResetLedger records consumed password reset tokens.
type ResetLedger interface {
	// Consume marks tokenID as used until expiresAt. It returns false when the token was already consumed.
	Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error)
	// Release forgets a consumed tokenID so it can be used again.
	Release(ctx context.Context, tokenID string) error
	Close() error
}
