package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finpulse/internal/amqp"
	"finpulse/internal/config"
	"finpulse/internal/export"
	gsheet "finpulse/internal/export/google"
	"finpulse/internal/export/memory"
	"finpulse/internal/storage"
	"finpulse/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting finpulse-exporter")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the exporter")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Ledger backend: Google Sheets when configured, in-memory otherwise.
	var (
		ledger     export.LedgerWriter
		tombstoner export.LedgerTombstoner
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		ledger, tombstoner = client, client
		logger.Info("Google Sheets ledger initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		mem := memory.New()
		ledger, tombstoner = mem, mem
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, using in-memory ledger")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportWorker := worker.NewExportWorker(repo, ledger, tombstoner, cfg.ExportBatchSize)

	// On startup, export anything that was missed while the exporter was down.
	logger.Info("Performing startup reconcile...")
	if n, err := exportWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", "error", err)
	} else if n > 0 {
		logger.Info("Startup reconcile complete", "exported", n)
	}

	// Scheduled reconcile catches rows whose events were lost.
	if err := exportWorker.StartReconcileSchedule(ctx, cfg.ReconcileSchedule); err != nil {
		logger.Error("Failed to start reconcile schedule", "error", err)
		os.Exit(1)
	}
	defer exportWorker.StopReconcileSchedule()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		handler := func(msg *amqp.TransactionEventMessage) error {
			return exportWorker.HandleTransactionEvent(gctx, msg)
		}
		if err := amqpClient.ConsumeTransactionEvents(gctx, handler); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	// Handle shutdown signals
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Message consumption failed", "error", err)
	}

	logger.Info("Shutting down exporter...")
	time.Sleep(2 * time.Second)
	logger.Info("Exporter shutdown complete")
}
