package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/mail"
	"github.com/splax/accounts/api/internal/repository"
	"github.com/splax/accounts/pkg/config"
	"github.com/splax/accounts/pkg/crypto"
	jwtpkg "github.com/splax/accounts/pkg/jwt"
)

// FileStore removes previously uploaded profile images.
type FileStore interface {
	Remove(name string) error
}

// Service handles authentication workflows.
type Service struct {
	accounts  repository.AccountRepository
	ledger    repository.ResetLedger
	mailer    mail.Sender
	files     FileStore
	logger    *slog.Logger
	cfg       config.APIConfig
	dummyHash []byte
}

// New constructs a Service.
func New(accounts repository.AccountRepository, ledger repository.ResetLedger, mailer mail.Sender, files FileStore, logger *slog.Logger, cfg config.APIConfig) Service {
	svc := Service{accounts: accounts, ledger: ledger, mailer: mailer, files: files, logger: logger, cfg: cfg}
	// Compared against when the email is unknown so both login failures cost one bcrypt run.
	if hash, err := crypto.HashPassword("dummy-password-for-timing-only"); err == nil {
		svc.dummyHash = hash
	} else {
		logger.Error("dummy hash generation failed", "error", err)
	}
	return svc
}

// CreateInput carries validated registration fields.
type CreateInput struct {
	Name         string
	Email        string
	Password     string
	ProfileImage string
}

// CreateAccount registers a new account and returns it with a session token.
func (s Service) CreateAccount(ctx context.Context, in CreateInput) (*domain.Account, string, error) {
	email := domain.NormalizeEmail(in.Email)
	if _, err := s.accounts.GetAccountByEmail(ctx, email); err == nil {
		return nil, "", ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	account := &domain.Account{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		ProfileImage: in.ProfileImage,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", ErrAccountExists
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("account created", "user_id", account.ID)
	return account, token, nil
}

// Login authenticates an account and returns a session token.
func (s Service) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if s.dummyHash != nil {
				_ = crypto.ComparePassword(s.dummyHash, password)
			}
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup account: %w", err)
	}
	if err := crypto.ComparePassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("compare password: %w", err)
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", account.ID)
	return account, token, nil
}

// Authorize validates a session token and returns the account id it carries.
// Reset tokens are rejected here.
func (s Service) Authorize(_ context.Context, token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", fmt.Errorf("%w: token required", ErrUnauthorized)
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Purpose != "" {
		return "", fmt.Errorf("%w: %s token cannot authenticate requests", ErrUnauthorized, claims.Purpose)
	}
	return claims.User.ID, nil
}

func (s Service) issueToken(accountID string) (string, error) {
	token, err := jwtpkg.GenerateToken(accountID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}
