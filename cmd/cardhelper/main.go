package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/coojiin/credit-card-helper/internal/amqp"
	"github.com/coojiin/credit-card-helper/internal/catalog"
	"github.com/coojiin/credit-card-helper/internal/config"
	"github.com/coojiin/credit-card-helper/internal/core"
	apphttp "github.com/coojiin/credit-card-helper/internal/http"
	"github.com/coojiin/credit-card-helper/internal/services"
	"github.com/coojiin/credit-card-helper/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Error("Failed to load card catalog", "error", err)
		os.Exit(1)
	}
	logger.Info("Card catalog loaded", "cards", cat.Len())

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without it transactions stay local until the worker's
	// pending sweep picks them up.
	var publisher services.SyncPublisher
	if cfg.MirrorEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Ledger mirror queue disabled - no AMQP_URL provided")
	}

	recommender := core.NewRecommender(cat)
	handler := apphttp.NewHandler(
		cat,
		services.NewCardService(repo, cat),
		services.NewTransactionService(repo, repo, recommender, publisher),
		services.NewRecommendationService(repo, repo, recommender),
		services.NewBackupService(repo, repo),
	)

	srv := apphttp.NewServer(":"+cfg.Port, handler)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting cardhelper server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
