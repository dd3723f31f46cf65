package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/repository"
)

const testSchema = `CREATE TABLE IF NOT EXISTS accounts (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password_hash BYTEA NOT NULL,
	profile_image TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (email);`

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	if _, err := pool.Exec(ctx, testSchema); err != nil {
		pool.Close()
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func uniqueEmail() string {
	return "pg-" + uuid.NewString() + "@example.com"
}

func TestRepositoryCreateAndLookup(t *testing.T) {
	repo := New(mustOpenTestPool(t))
	ctx := context.Background()

	account := &domain.Account{Name: "Alice", Email: uniqueEmail(), PasswordHash: []byte("hash")}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if account.ID == "" {
		t.Fatalf("expected store-assigned id")
	}

	byEmail, err := repo.GetAccountByEmail(ctx, account.Email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != account.ID {
		t.Fatalf("unexpected id %q", byEmail.ID)
	}
	byID, err := repo.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if string(byID.PasswordHash) != "hash" {
		t.Fatalf("unexpected hash %q", byID.PasswordHash)
	}
}

func TestRepositoryDuplicateEmailConflicts(t *testing.T) {
	repo := New(mustOpenTestPool(t))
	ctx := context.Background()
	email := uniqueEmail()

	if err := repo.CreateAccount(ctx, &domain.Account{Name: "Alice", Email: email, PasswordHash: []byte("a")}); err != nil {
		t.Fatalf("create first: %v", err)
	}
	err := repo.CreateAccount(ctx, &domain.Account{Name: "Alicia", Email: email, PasswordHash: []byte("b")})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRepositoryUpdateProfileAndPassword(t *testing.T) {
	repo := New(mustOpenTestPool(t))
	ctx := context.Background()

	account := &domain.Account{Name: "Alice", Email: uniqueEmail(), PasswordHash: []byte("old")}
	if err := repo.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	name := "Alice Liddell"
	image := "123-a.png"
	updated, err := repo.UpdateProfile(ctx, account.ID, domain.ProfileUpdate{Name: &name, ProfileImage: &image})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != name || updated.ProfileImage != image || updated.Email != account.Email {
		t.Fatalf("unexpected account after update: %+v", updated)
	}

	if err := repo.UpdatePasswordHash(ctx, account.ID, []byte("new")); err != nil {
		t.Fatalf("update password: %v", err)
	}
	stored, err := repo.GetAccountByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if string(stored.PasswordHash) != "new" {
		t.Fatalf("password hash not updated")
	}
}

func TestRepositoryMissingAccount(t *testing.T) {
	repo := New(mustOpenTestPool(t))
	ctx := context.Background()

	if _, err := repo.GetAccountByID(ctx, "not-a-uuid"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
	if _, err := repo.GetAccountByID(ctx, uuid.NewString()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	name := "ghost"
	if _, err := repo.UpdateProfile(ctx, uuid.NewString(), domain.ProfileUpdate{Name: &name}); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, uuid.NewString(), []byte("x")); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on password update, got %v", err)
	}
}
