package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadAPIConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg := LoadAPIConfig()
	if cfg.Addr != ":4000" {
		t.Fatalf("unexpected addr %q", cfg.Addr)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Fatalf("unexpected store driver %q", cfg.StoreDriver)
	}
	if cfg.AccessTokenTTL != 0 {
		t.Fatalf("expected session tokens without expiry by default, got %s", cfg.AccessTokenTTL)
	}
	if cfg.ResetTokenTTL != time.Hour {
		t.Fatalf("unexpected reset ttl %s", cfg.ResetTokenTTL)
	}
	if cfg.ResetTokenInResponse {
		t.Fatalf("expected reset token to stay out of responses by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestLoadAPIConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", " Mongo ")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("RESET_TOKEN_IN_RESPONSE", "true")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := LoadAPIConfig()
	if cfg.StoreDriver != StoreDriverMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.StoreDriver)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %s", cfg.AccessTokenTTL)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("unexpected max upload bytes %d", cfg.MaxUploadBytes)
	}
	if !cfg.ResetTokenInResponse {
		t.Fatalf("expected reset token exposure enabled")
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("expected fallback redis db, got %d", cfg.RedisDB)
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := APIConfig{StoreDriver: StoreDriverMemory, ResetTokenTTL: time.Hour, UploadDir: "uploads"}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := APIConfig{JWTSecret: "x", StoreDriver: "cassandra", ResetTokenTTL: time.Hour, UploadDir: "uploads"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
