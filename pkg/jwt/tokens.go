package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PurposePasswordReset marks tokens that may only complete a password reset.
const PurposePasswordReset = "password_reset"

// ErrMissingSubject is returned when a token carries no account identifier.
var ErrMissingSubject = errors.New("jwt: token has no user id")

// UserClaim is the account reference embedded in every token.
type UserClaim struct {
	ID string `json:"id"`
}

// Claims defines JWT payload.
type Claims struct {
	User    UserClaim `json:"user"`
	Purpose string    `json:"purpose,omitempty"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed session token for userID. A non-positive ttl omits the exp claim.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User: UserClaim{ID: userID},
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt: jwtlib.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwtlib.NewNumericDate(now.Add(ttl))
	}
	return sign(claims, secret)
}

// GenerateResetToken issues a password reset token with a unique id and a mandatory expiry.
func GenerateResetToken(userID, secret string, ttl time.Duration) (string, *Claims, error) {
	if ttl <= 0 {
		return "", nil, errors.New("jwt: reset token requires a positive ttl")
	}
	now := time.Now()
	claims := Claims{
		User:    UserClaim{ID: userID},
		Purpose: PurposePasswordReset,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := sign(claims, secret)
	if err != nil {
		return "", nil, err
	}
	return token, &claims, nil
}

// Parse validates and extracts claims from token.
func Parse(token string, secret string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	if claims.User.ID == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func sign(claims Claims, secret string) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
