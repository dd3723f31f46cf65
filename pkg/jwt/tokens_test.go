package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestGenerateTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-123", testSecret, 0)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.User.ID != "user-123" {
		t.Fatalf("unexpected user id %q", claims.User.ID)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no expiry for zero ttl")
	}
	if claims.Purpose != "" {
		t.Fatalf("expected session token without purpose, got %q", claims.Purpose)
	}
}

func TestGenerateTokenWithTTL(t *testing.T) {
	token, err := GenerateToken("user-123", testSecret, time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Fatalf("expected expiry in the future")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-123", testSecret, 0)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := Parse(token, "other-secret"); !errors.Is(err, jwtlib.ErrTokenSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	claims := Claims{
		User: UserClaim{ID: "user-123"},
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := sign(claims, testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token, testSecret); !errors.Is(err, jwtlib.ErrTokenExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, Claims{User: UserClaim{ID: "user-123"}})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(signed, testSecret); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}

func TestParseRejectsMissingUser(t *testing.T) {
	token, err := sign(Claims{}, testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token, testSecret); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected ErrMissingSubject, got %v", err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse("not.a.token", testSecret); err == nil {
		t.Fatalf("expected malformed token error")
	}
}

func TestGenerateResetToken(t *testing.T) {
	token, issued, err := GenerateResetToken("user-123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate reset token: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWS, got %q", token)
	}
	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse reset token: %v", err)
	}
	if claims.Purpose != PurposePasswordReset {
		t.Fatalf("unexpected purpose %q", claims.Purpose)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Fatalf("expected jti to round trip, got %q vs %q", claims.ID, issued.ID)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected reset token expiry")
	}
}

func TestGenerateResetTokenRequiresTTL(t *testing.T) {
	if _, _, err := GenerateResetToken("user-123", testSecret, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}
