package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/core"
	"finpulse/internal/export/memory"
	"finpulse/internal/storage"
)

type fakeExportStorage struct {
	transactions map[string]core.Transaction
	exported     map[string]bool
	errored      map[string]int
	markErr      error
}

func newFakeExportStorage() *fakeExportStorage {
	return &fakeExportStorage{
		transactions: make(map[string]core.Transaction),
		exported:     make(map[string]bool),
		errored:      make(map[string]int),
	}
}

func (f *fakeExportStorage) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	tx, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return tx, nil
}

func (f *fakeExportStorage) ListPendingExportTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for id, tx := range f.transactions {
		if !f.exported[id] {
			out = append(out, tx)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeExportStorage) MarkExported(_ context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.exported[id] = true
	return nil
}

func (f *fakeExportStorage) MarkExportError(_ context.Context, id string) error {
	f.errored[id]++
	return nil
}

type failingLedger struct{ err error }

func (f failingLedger) Append(context.Context, core.Transaction) (string, error) {
	return "", f.err
}

func exportableTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:        id,
		UserID:    "user-1",
		Type:      core.Expense,
		Amount:    core.Money{Cents: 999},
		Category:  "Food",
		Date:      core.NewDate(2025, 2, 10),
		CreatedAt: time.Now(),
	}
}

func TestExportWorker_HandleCreated(t *testing.T) {
	store := newFakeExportStorage()
	store.transactions["tx-1"] = exportableTransaction("tx-1")
	ledger := memory.New()
	w := NewExportWorker(store, ledger, ledger, 10)

	msg := &amqp.TransactionEventMessage{ID: "tx-1", Action: amqp.ActionCreated, UserID: "user-1"}
	if err := w.HandleTransactionEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleTransactionEvent() error = %v", err)
	}

	rows := ledger.Rows()
	if len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Errorf("ledger rows = %v, want one row for tx-1", rows)
	}
	if !store.exported["tx-1"] {
		t.Error("transaction should be marked exported")
	}
}

func TestExportWorker_HandleCreated_MissingRowIsSkipped(t *testing.T) {
	store := newFakeExportStorage()
	ledger := memory.New()
	w := NewExportWorker(store, ledger, ledger, 10)

	msg := &amqp.TransactionEventMessage{ID: "ghost", Action: amqp.ActionCreated}
	if err := w.HandleTransactionEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleTransactionEvent() error = %v, missing rows must not requeue", err)
	}
	if len(ledger.Rows()) != 0 {
		t.Error("nothing should be appended for a missing row")
	}
}

func TestExportWorker_HandleCreated_LedgerFailure(t *testing.T) {
	store := newFakeExportStorage()
	store.transactions["tx-1"] = exportableTransaction("tx-1")
	w := NewExportWorker(store, failingLedger{err: errors.New("quota exceeded")}, nil, 10)

	msg := &amqp.TransactionEventMessage{ID: "tx-1", Action: amqp.ActionCreated}
	if err := w.HandleTransactionEvent(context.Background(), msg); err == nil {
		t.Fatal("HandleTransactionEvent() should fail so the delivery is requeued")
	}
	if store.errored["tx-1"] != 1 {
		t.Errorf("export error count = %d, want 1", store.errored["tx-1"])
	}
	if store.exported["tx-1"] {
		t.Error("transaction must not be marked exported on ledger failure")
	}
}

func TestExportWorker_HandleDeleted(t *testing.T) {
	store := newFakeExportStorage()
	ledger := memory.New()
	w := NewExportWorker(store, ledger, ledger, 10)

	msg := &amqp.TransactionEventMessage{ID: "tx-1", Action: amqp.ActionDeleted, UserID: "user-1"}
	if err := w.HandleTransactionEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleTransactionEvent() error = %v", err)
	}

	tombstones := ledger.Tombstones()
	if len(tombstones) != 1 || tombstones[0] != "tx-1" {
		t.Errorf("tombstones = %v, want [tx-1]", tombstones)
	}
}

func TestExportWorker_HandleDeleted_NoTombstoner(t *testing.T) {
	store := newFakeExportStorage()
	w := NewExportWorker(store, memory.New(), nil, 10)

	msg := &amqp.TransactionEventMessage{ID: "tx-1", Action: amqp.ActionDeleted}
	if err := w.HandleTransactionEvent(context.Background(), msg); err != nil {
		t.Errorf("HandleTransactionEvent() error = %v, want nil without tombstoner", err)
	}
}

func TestExportWorker_UnknownActionIsDropped(t *testing.T) {
	w := NewExportWorker(newFakeExportStorage(), memory.New(), nil, 10)

	msg := &amqp.TransactionEventMessage{ID: "tx-1", Action: "renamed"}
	if err := w.HandleTransactionEvent(context.Background(), msg); err != nil {
		t.Errorf("HandleTransactionEvent() error = %v, unknown actions must not requeue", err)
	}
}

func TestExportWorker_Reconcile(t *testing.T) {
	store := newFakeExportStorage()
	store.transactions["tx-1"] = exportableTransaction("tx-1")
	store.transactions["tx-2"] = exportableTransaction("tx-2")
	store.exported["tx-2"] = true
	ledger := memory.New()
	w := NewExportWorker(store, ledger, ledger, 10)

	exported, err := w.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if exported != 1 {
		t.Errorf("Reconcile() exported = %d, want 1", exported)
	}
	if !store.exported["tx-1"] {
		t.Error("pending transaction should be exported by reconcile")
	}
}

func TestExportWorker_Reconcile_ContinuesPastFailures(t *testing.T) {
	store := newFakeExportStorage()
	store.transactions["tx-1"] = exportableTransaction("tx-1")
	w := NewExportWorker(store, failingLedger{err: errors.New("offline")}, nil, 10)

	exported, err := w.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile() error = %v, per-row failures are logged not returned", err)
	}
	if exported != 0 {
		t.Errorf("Reconcile() exported = %d, want 0", exported)
	}
	if store.errored["tx-1"] != 1 {
		t.Errorf("export error count = %d, want 1", store.errored["tx-1"])
	}
}
