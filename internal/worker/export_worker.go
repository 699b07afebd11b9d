// Package worker drains the transaction event stream into the external
// ledger and periodically re-exports rows that failed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/export"
	"finpulse/internal/storage"
)

// ExportStorage is the slice of the repository the worker needs.
type ExportStorage interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListPendingExportTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id string) error
	MarkExportError(ctx context.Context, id string) error
}

// ExportWorker appends transactions to the ledger as events arrive and
// reconciles missed rows on a schedule.
type ExportWorker struct {
	storage    ExportStorage
	ledger     export.LedgerWriter
	tombstoner export.LedgerTombstoner
	batchSize  int
	cron       *cron.Cron
}

func NewExportWorker(storage ExportStorage, ledger export.LedgerWriter, tombstoner export.LedgerTombstoner, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:    storage,
		ledger:     ledger,
		tombstoner: tombstoner,
		batchSize:  batchSize,
	}
}

// HandleTransactionEvent processes a single event from the stream.
// Returning an error makes the consumer nack-requeue the delivery.
func (w *ExportWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	switch msg.Action {
	case amqp.ActionCreated:
		return w.exportByID(ctx, msg.ID)
	case amqp.ActionDeleted:
		return w.tombstone(ctx, msg.ID, msg.UserID)
	default:
		slog.WarnContext(ctx, "Unknown transaction event action, dropping",
			"transaction_id", msg.ID, "action", msg.Action)
		return nil
	}
}

func (w *ExportWorker) exportByID(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted before the event was consumed. Nothing to export.
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.exportTransaction(ctx, tx)
}

func (w *ExportWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.ledger.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkExportError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export error",
				"transaction_id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.storage.MarkExported(ctx, tx.ID); err != nil {
		// The row is in the ledger; the reconcile pass may append it
		// again. Duplicate ledger rows are preferable to lost ones.
		return fmt.Errorf("mark exported: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported to ledger",
		"transaction_id", tx.ID, "ledger_ref", ref)
	return nil
}

func (w *ExportWorker) tombstone(ctx context.Context, id, userID string) error {
	if w.tombstoner == nil {
		slog.WarnContext(ctx, "No ledger tombstoner configured, skipping delete marker",
			"transaction_id", id)
		return nil
	}
	if err := w.tombstoner.AppendTombstone(ctx, id, userID); err != nil {
		return fmt.Errorf("append tombstone: %w", err)
	}
	return nil
}

// Reconcile exports up to one batch of rows that never made it to the
// ledger, oldest first. It returns the number of rows exported.
func (w *ExportWorker) Reconcile(ctx context.Context) (int, error) {
	pending, err := w.storage.ListPendingExportTransactions(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Reconciling pending ledger exports", "count", len(pending))

	exported := 0
	for _, tx := range pending {
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Reconcile export failed",
				"transaction_id", tx.ID, "error", err)
			continue
		}
		exported++
	}
	return exported, nil
}

// StartReconcileSchedule runs Reconcile on the given cron spec until
// StopReconcileSchedule is called.
func (w *ExportWorker) StartReconcileSchedule(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := w.Reconcile(ctx); err != nil {
			slog.ErrorContext(ctx, "Scheduled reconcile failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", spec, err)
	}

	c.Start()
	w.cron = c
	slog.InfoContext(ctx, "Reconcile schedule started", "spec", spec)
	return nil
}

// StopReconcileSchedule stops the cron scheduler and waits for a running
// reconcile pass to finish.
func (w *ExportWorker) StopReconcileSchedule() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
}
