package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetwise/internal/amqp"
	"budgetwise/internal/config"
	"budgetwise/internal/export"
	gsheets "budgetwise/internal/export/google"
	"budgetwise/internal/export/memory"
	applog "budgetwise/internal/log"
	"budgetwise/internal/storage"
	"budgetwise/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logCfg := applog.DefaultConfig()
	logCfg.Component = "export-worker"
	logger := applog.New(logCfg)
	applog.SetDefault(logger)

	logger.Info("Starting export worker")

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

	// Without a spreadsheet id the worker still drains the queue into an
	// in-memory target, which keeps local development broker-complete.
	var target export.TransactionWriter
	if cfg.ExportSpreadsheetID != "" {
		client, err := gsheets.New(ctx, cfg.ExportSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		target = client
		logger.Info("Google Sheets export target initialized",
			"spreadsheet_id", cfg.ExportSpreadsheetID, "sheet", cfg.ExportSheetName)
	} else {
		target = memory.New()
		logger.Info("No EXPORT_SPREADSHEET_ID set, using in-memory export target")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	exportWorker := worker.NewExportWorker(repo, target)
	if err := exportWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Export worker stopped gracefully")
}
