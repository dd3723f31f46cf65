package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/mail"
	"github.com/splax/accounts/api/internal/repository"
	"github.com/splax/accounts/pkg/crypto"
	jwtpkg "github.com/splax/accounts/pkg/jwt"
)

// RequestPasswordReset issues a reset token for email and mails a link carrying it.
// Delivery failures are logged only; the token is returned either way.
func (s Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrEmailNotFound
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}

	token, claims, err := jwtpkg.GenerateResetToken(account.ID, s.cfg.JWTSecret, s.cfg.ResetTokenTTL)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}

	link := strings.TrimRight(s.cfg.ResetURLBase, "/") + "/" + token
	msg, err := mail.PasswordResetMessage(account.Email, link, claims.ExpiresAt.Time)
	if err != nil {
		return "", err
	}
	sendCtx := ctx
	if s.cfg.MailTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, s.cfg.MailTimeout)
		defer cancel()
	}
	if err := s.mailer.Send(sendCtx, msg); err != nil {
		s.logger.Error("password reset email failed", "user_id", account.ID, "error", err)
	} else {
		s.logger.Info("password reset email sent", "user_id", account.ID)
	}
	return token, nil
}

// CompletePasswordReset verifies a reset token, consumes it, and stores the new password hash.
func (s Service) CompletePasswordReset(ctx context.Context, token, password string) error {
	claims, err := jwtpkg.Parse(strings.TrimSpace(token), s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResetToken, err)
	}
	if claims.Purpose != jwtpkg.PurposePasswordReset || claims.ID == "" || claims.ExpiresAt == nil {
		return fmt.Errorf("%w: not a reset token", ErrInvalidResetToken)
	}

	fresh, err := s.ledger.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	if !fresh {
		return fmt.Errorf("%w: already used", ErrInvalidResetToken)
	}

	if err := s.storePassword(ctx, claims.User.ID, password); err != nil {
		// The token stays usable when the write did not happen.
		if relErr := s.ledger.Release(ctx, claims.ID); relErr != nil {
			s.logger.Warn("reset token not released", "user_id", claims.User.ID, "error", relErr)
		}
		return err
	}
	s.logger.Info("password reset completed", "user_id", claims.User.ID)
	return nil
}

func (s Service) storePassword(ctx context.Context, accountID, password string) error {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
