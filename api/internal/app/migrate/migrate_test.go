package migrate

import (
	"path/filepath"
	"testing"
)

func TestNewValidatesInputs(t *testing.T) {
	dir := t.TempDir()
	if _, err := New("", dir, nil); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := New("postgres://localhost/accounts", "", nil); err == nil {
		t.Fatalf("expected error for empty migrations dir")
	}
	if _, err := New("postgres://localhost/accounts", filepath.Join(dir, "missing"), nil); err == nil {
		t.Fatalf("expected error for missing migrations dir")
	}
	runner, err := New("postgres://localhost/accounts", dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.log == nil {
		t.Fatalf("expected default logger")
	}
}

func TestRepositoryMigrationsDirExists(t *testing.T) {
	if _, err := New("postgres://localhost/accounts", filepath.Join("..", "..", "..", "..", "db", "migrations"), nil); err != nil {
		t.Fatalf("expected repository migrations to be found: %v", err)
	}
}
