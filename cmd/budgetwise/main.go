package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetwise/internal/amqp"
	"budgetwise/internal/analytics"
	"budgetwise/internal/cache"
	"budgetwise/internal/config"
	apphttp "budgetwise/internal/http"
	"budgetwise/internal/ledger"
	applog "budgetwise/internal/log"
	"budgetwise/internal/services"
	"budgetwise/internal/storage"
)

func main() {
	// Load .env for local development; absence is fine in production.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	categories := services.NewCategoryService(repo)
	if err := categories.SeedSystemCategories(ctx); err != nil {
		logger.Error("Failed to seed system categories", "error", err)
		os.Exit(1)
	}

	// The broker is optional: without it, writes still succeed and the
	// export mirror simply never hears about them.
	var publisher services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, ledger events will not be published", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	led := ledger.New(repo)
	cacheManager := cache.NewManager(led)
	coordinator := services.NewCoordinator(led, cacheManager, repo, publisher, cfg.InvalidationRetries)

	srv := apphttp.NewServer(cfg.Port, apphttp.Deps{
		Coordinator: coordinator,
		Analytics:   analytics.NewEngine(led, repo, cacheManager),
		Budgets:     services.NewBudgetService(repo, led, cacheManager),
		Goals:       services.NewGoalService(repo, led, cacheManager),
		Categories:  categories,
		Ledger:      led,
	})

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

	logger.Info("Starting budgetwise server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
