package crypto

import (
	"errors"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if string(hash) == "secret" {
		t.Fatalf("expected hash to differ from plaintext")
	}
	if err := ComparePassword(hash, "secret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
}

func TestComparePasswordMismatch(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if string(a) == string(b) {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestComparePasswordMalformedHash(t *testing.T) {
	err := ComparePassword([]byte("not-a-bcrypt-hash"), "secret")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected malformed hash error, got %v", err)
	}
}
