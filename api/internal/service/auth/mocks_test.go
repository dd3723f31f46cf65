package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/splax/accounts/api/internal/domain"
	"github.com/splax/accounts/api/internal/mail"
	"github.com/splax/accounts/api/internal/repository"
	"github.com/splax/accounts/api/internal/repository/memory"
	"github.com/splax/accounts/pkg/config"
)

const testSecret = "test-secret"

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:     testSecret,
		ResetTokenTTL: time.Hour,
		ResetURLBase:  "http://localhost:5173/reset-password/",
		MailTimeout:   time.Second,
	}
}

type harness struct {
	svc      Service
	accounts *memory.Accounts
	ledger   *memory.ResetLedger
	mailer   *mailRecorder
	files    *fileRecorder
}

func newHarness() harness {
	h := harness{
		accounts: memory.NewAccounts(),
		ledger:   memory.NewResetLedger(),
		mailer:   &mailRecorder{},
		files:    &fileRecorder{},
	}
	h.svc = New(h.accounts, h.ledger, h.mailer, h.files, newLogger(), testConfig())
	return h
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *mailRecorder) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fileRecorder struct {
	removed []string
	err     error
}

func (f *fileRecorder) Remove(name string) error {
	f.removed = append(f.removed, name)
	return f.err
}

type accountRepoMock struct {
	createFunc         func(ctx context.Context, account *domain.Account) error
	getByEmailFunc     func(ctx context.Context, email string) (*domain.Account, error)
	getByIDFunc        func(ctx context.Context, id string) (*domain.Account, error)
	updateProfileFunc  func(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Account, error)
	updatePasswordFunc func(ctx context.Context, id string, hash []byte) error
}

func (m accountRepoMock) CreateAccount(ctx context.Context, account *domain.Account) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, account)
	}
	return errors.New("not implemented")
}

func (m accountRepoMock) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m accountRepoMock) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m accountRepoMock) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Account, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, update)
	}
	return nil, errors.New("not implemented")
}

func (m accountRepoMock) UpdatePasswordHash(ctx context.Context, id string, hash []byte) error {
	if m.updatePasswordFunc != nil {
		return m.updatePasswordFunc(ctx, id, hash)
	}
	return errors.New("not implemented")
}

func (m accountRepoMock) Ping(context.Context) error { return nil }

type ledgerStub struct {
	err error
}

func (l ledgerStub) Consume(context.Context, string, time.Time) (bool, error) { return false, l.err }
func (l ledgerStub) Release(context.Context, string) error { return nil }
func (l ledgerStub) Close() error                        { return nil }
