package domain

import (
	"strings"
	"time"
)

// Account represents a registered user with credentials and profile metadata.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the stored value untouched.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	ProfileImage *string
}

// NormalizeEmail canonicalizes an email for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
