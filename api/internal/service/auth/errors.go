package auth

import "errors"

var (
	// ErrAccountExists is returned when the email is already registered.
	ErrAccountExists = errors.New("auth: account already exists")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthorized is returned for missing, malformed, or rejected session tokens.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrAccountNotFound is returned when an authenticated id no longer resolves.
	ErrAccountNotFound = errors.New("auth: account not found")
	// ErrEmailNotFound is returned when a reset is requested for an unknown email.
	ErrEmailNotFound = errors.New("auth: no such email")
	// ErrInvalidResetToken is returned when a reset token fails verification or was already used.
	ErrInvalidResetToken = errors.New("auth: invalid reset token")
)
