// Package services orchestrates writes across the local database, the
// event stream, and connected dashboard clients.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/storage"
)

// TransactionStore is the persistence surface the service needs.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) error
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	SoftDeleteTransaction(ctx context.Context, userID, id string) error
}

// EventPublisher pushes transaction change events to the export stream.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, id, action, userID string) error
}

// ChangeNotifier tells connected dashboard clients that a month changed.
type ChangeNotifier interface {
	BroadcastTransactionChange(userID string, year, month int)
}

// TransactionService persists transactions and then fans out
// notifications. The local write is authoritative: publish and broadcast
// failures are logged, never surfaced to the caller.
type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
	notifier  ChangeNotifier
}

func NewTransactionService(store TransactionStore, publisher EventPublisher, notifier ChangeNotifier) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
	}
}

// CreateTransaction validates and saves a transaction, then notifies the
// export stream and the user's dashboard clients.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publishEvent(ctx, tx.ID, amqp.ActionCreated, tx.UserID)
	s.notifyChange(tx.UserID, tx.Date.Year(), tx.Date.Month())

	return tx, nil
}

// ListTransactions returns the user's full transaction history, oldest
// first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// DeleteTransaction soft-deletes a transaction, then notifies the export
// stream and the user's dashboard clients.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}
	if tx.UserID != userID {
		// Treat foreign rows the same as missing ones.
		return fmt.Errorf("load transaction: %w", storage.ErrNotFound)
	}

	if err := s.store.SoftDeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, id, amqp.ActionDeleted, userID)
	s.notifyChange(userID, tx.Date.Year(), tx.Date.Month())

	return nil
}

func (s *TransactionService) publishEvent(ctx context.Context, id, action, userID string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event")
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, id, action, userID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", id, "action", action, "error", err)
	}
}

func (s *TransactionService) notifyChange(userID string, year, month int) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastTransactionChange(userID, year, month)
}
