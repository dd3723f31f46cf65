package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

// ensure Repository satisfies interfaces.
var _ repository.AccountRepository = (*Repository)(nil)

const accountColumns = `id, name, email, password_hash, profile_image, created_at, updated_at`

// CreateAccount inserts an account. The unique index on email turns duplicates into ErrConflict.
func (r *Repository) CreateAccount(ctx context.Context, account *domain.Account) error {
	const query = `INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`
	id := uuid.NewString()
	now := r.now()
	_, err := r.pool.Exec(ctx, query, id, account.Name, account.Email, account.PasswordHash, account.ProfileImage, now)
	if err != nil {
		return mapWriteError(err)
	}
	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetAccountByEmail fetches an account by email.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

// GetAccountByID retrieves an account by identifier.
func (r *Repository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// UpdateProfile applies the non-nil fields of update and returns the stored row.
func (r *Repository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	const query = `UPDATE accounts SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			profile_image = COALESCE($4, profile_image),
			updated_at = $5
		WHERE id = $1
		RETURNING ` + accountColumns
	row := r.pool.QueryRow(ctx, query, id, update.Name, update.Email, update.ProfileImage, r.now())
	account, err := scanAccount(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return account, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id string, hash []byte) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	const query = `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, hash, r.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.ProfileImage, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func mapWriteError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		}
	}
	return err
}
