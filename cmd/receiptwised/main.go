package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/receiptwise/receiptwise/internal/auth"
	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/export"
	"github.com/receiptwise/receiptwise/internal/imaging"
	"github.com/receiptwise/receiptwise/internal/llm/anthropic"
	"github.com/receiptwise/receiptwise/internal/repository"
	"github.com/receiptwise/receiptwise/internal/scan"
	"github.com/receiptwise/receiptwise/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Database.Path, cfg.Database.OpenTimeout, logger)
	if err != nil {
		logger.Error("opening database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	expenses := repository.NewExpenseRepository(db, logger)
	sessions := repository.NewSessionRepository(db, logger)

	provider := auth.NewHTTPIdentityProvider(cfg.Auth.ProviderURL, 10*time.Second)
	authSvc := auth.NewService(provider, sessions, cfg.Auth.SessionTTL, logger)

	extractor := anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, logger)
	scanner := scan.NewScanner(extractor, imaging.Limits{
		MaxDimensionPx:  cfg.Scan.MaxDimensionPx,
		MaxEncodedBytes: cfg.Scan.MaxBytes,
	}, logger)

	exporter := export.NewService(logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(scanner, authSvc, expenses, exporter, logger),
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
