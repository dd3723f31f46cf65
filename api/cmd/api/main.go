package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpx "github.com/splax/accounts/api/internal/http"
	"github.com/splax/accounts/api/internal/mail"
	"github.com/splax/accounts/api/internal/repository"
	"github.com/splax/accounts/api/internal/repository/memory"
	"github.com/splax/accounts/api/internal/repository/redisstore"
	"github.com/splax/accounts/api/internal/service/auth"
	"github.com/splax/accounts/api/internal/upload"
	"github.com/splax/accounts/pkg/config"
	"github.com/splax/accounts/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("accounts-api", logger.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accounts, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open account store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	var ledger repository.ResetLedger = memory.NewResetLedger()
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		redisLedger, err := redisstore.NewResetLedger(addr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			log.Warn("redis reset ledger unavailable", "error", err)
		} else {
			_ = ledger.Close()
			ledger = redisLedger
		}
	}
	defer ledger.Close()

	var mailer mail.Sender = mail.NewLogSender(log)
	if host := strings.TrimSpace(cfg.SMTPHost); host != "" {
		smtpSender, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     host,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.MailTimeout,
		})
		if err != nil {
			log.Warn("smtp transport unavailable, reset emails will only be logged", "error", err)
		} else {
			mailer = smtpSender
		}
	} else {
		log.Warn("SMTP_HOST not set, reset emails will only be logged")
	}

	uploads, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Error("failed to prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	authSvc := auth.New(accounts, ledger, mailer, uploads, log, cfg)
	router := httpx.NewRouter(log, authSvc, uploads, cfg, accounts.Ping)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "store", cfg.StoreDriver, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
