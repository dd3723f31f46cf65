package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/repository"
)

// ProfileInput carries optional profile changes. ProfileImage is the stored name of a freshly
// uploaded file, empty when no file was sent.
type ProfileInput struct {
	Name         *string
	Email        *string
	ProfileImage string
}

// Profile returns the account for id, or nil when it no longer exists.
func (s Service) Profile(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// UpdateProfile applies profile changes. When a new image replaces an old one the old file is
// removed first; a failed removal is logged and the update proceeds. The removal and the store
// write are not atomic, so a crash between them leaves the record pointing at a missing file.
func (s Service) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.Account, error) {
	current, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	update := domain.ProfileUpdate{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		update.Name = &name
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != current.Email {
			// Checked before the old image is removed so a collision leaves the files intact.
			owner, err := s.accounts.GetAccountByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != id:
				return nil, ErrAccountExists
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("lookup account: %w", err)
			}
		}
		update.Email = &email
	}
	if in.ProfileImage != "" {
		if current.ProfileImage != "" && s.files != nil {
			if err := s.files.Remove(current.ProfileImage); err != nil {
				s.logger.Warn("previous profile image not removed", "user_id", id, "file", current.ProfileImage, "error", err)
			}
		}
		image := in.ProfileImage
		update.ProfileImage = &image
	}

	updated, err := s.accounts.UpdateProfile(ctx, id, update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("update account: %w", err)
	}
	s.logger.Info("profile updated", "user_id", id)
	return updated, nil
}
