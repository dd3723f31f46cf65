// Package redisstore keeps password reset bookkeeping in Redis.
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/splax/accounts/api/internal/repository"
)

const ledgerPrefix = "accounts:reset:used:"

// ResetLedger records consumed reset token ids with SETNX so concurrent completions have one winner.
type ResetLedger struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

var _ repository.ResetLedger = (*ResetLedger)(nil)

// NewResetLedger connects to Redis and verifies the connection.
func NewResetLedger(addr, password string, db int, logger *slog.Logger) (*ResetLedger, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return newResetLedger(client, logger), nil
}

func newResetLedger(client *redis.Client, logger *slog.Logger) *ResetLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetLedger{
		client:  client,
		logger:  logger,
		prefix:  ledgerPrefix,
		timeout: 500 * time.Millisecond,
	}
}

func (l *ResetLedger) Consume(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ok, err := l.client.SetNX(ctx, l.prefix+tokenID, 1, ttl).Result()
	if err != nil {
		l.logger.Error("reset ledger error", "op", "setnx", "error", err)
		return false, fmt.Errorf("consume reset token: %w", err)
	}
	return ok, nil
}

func (l *ResetLedger) Release(ctx context.Context, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	if err := l.client.Del(ctx, l.prefix+tokenID).Err(); err != nil {
		l.logger.Error("reset ledger error", "op", "del", "error", err)
		return fmt.Errorf("release reset token: %w", err)
	}
	return nil
}

func (l *ResetLedger) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
