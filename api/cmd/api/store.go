package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/splax/accounts/api/internal/app/migrate"
	"github.com/splax/accounts/api/internal/repository"
	"github.com/splax/accounts/api/internal/repository/memory"
	"github.com/splax/accounts/api/internal/repository/mongodb"
	"github.com/splax/accounts/api/internal/repository/postgres"
	"github.com/splax/accounts/pkg/config"
)

const storeConnectTimeout = 10 * time.Second

// openStore connects the account store selected by STORE_DRIVER. The returned func releases it.
func openStore(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (repository.AccountRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.StoreDriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
		defer cancel()
		repo, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		log.Info("mongo store ready", "database", cfg.MongoDatabase)
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := repo.Close(closeCtx); err != nil {
				log.Warn("mongo disconnect failed", "error", err)
			}
		}, nil
	case config.StoreDriverMemory:
		log.Warn("using in-memory account store, data is lost on restart")
		return memory.NewAccounts(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (repository.AccountRepository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	repo := postgres.New(pool)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	runner, err := migrate.New(cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("configure migrations: %w", err)
	}
	if err := runner.Ensure(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repo, pool.Close, nil
}
