package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finpulse/internal/core"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func storedTransaction(id, userID string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:        id,
		UserID:    userID,
		Type:      core.Expense,
		Amount:    core.Money{Cents: 1500},
		Category:  "Food",
		Date:      date,
		CreatedAt: time.Now().UTC(),
	}
}

func TestRepository_CreateAndGetTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := storedTransaction("tx-1", "user-1", core.NewDate(2025, 3, 15))
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.ID != tx.ID || got.UserID != tx.UserID || got.Amount.Cents != tx.Amount.Cents {
		t.Errorf("GetTransaction() = %+v, want %+v", got, tx)
	}
	if got.Date.Year() != 2025 || got.Date.Month() != 3 || got.Date.Day() != 15 {
		t.Errorf("date round-trip = %v-%v-%v, want 2025-3-15", got.Date.Year(), got.Date.Month(), got.Date.Day())
	}
}

func TestRepository_GetTransaction_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetTransaction(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListTransactions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	dates := []core.Date{
		core.NewDate(2025, 3, 20),
		core.NewDate(2025, 1, 5),
		core.NewDate(2025, 2, 10),
	}
	for i, d := range dates {
		tx := storedTransaction("tx-"+string(rune('a'+i)), "user-1", d)
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}
	other := storedTransaction("tx-other", "user-2", core.NewDate(2025, 1, 1))
	if err := repo.CreateTransaction(ctx, other); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	txs, err := repo.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("ListTransactions() returned %d rows, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].Date.Time.Before(txs[i-1].Date.Time) {
			t.Errorf("rows out of date order: %v before %v", txs[i].Date, txs[i-1].Date)
		}
	}
}

func TestRepository_SoftDeleteTransaction(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := storedTransaction("tx-1", "user-1", core.NewDate(2025, 3, 15))
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := repo.SoftDeleteTransaction(ctx, "user-1", "tx-1"); err != nil {
		t.Fatalf("SoftDeleteTransaction() error = %v", err)
	}

	if _, err := repo.GetTransaction(ctx, "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction() after soft delete error = %v, want ErrNotFound", err)
	}
	txs, err := repo.ListTransactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("soft-deleted row still listed: %v", txs)
	}

	// Second delete of the same row reports not found.
	if err := repo.SoftDeleteTransaction(ctx, "user-1", "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second SoftDeleteTransaction() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_SoftDeleteTransaction_WrongUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	tx := storedTransaction("tx-1", "user-1", core.NewDate(2025, 3, 15))
	if err := repo.CreateTransaction(ctx, tx); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	if err := repo.SoftDeleteTransaction(ctx, "user-2", "tx-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SoftDeleteTransaction() error = %v, want ErrNotFound for foreign row", err)
	}
	if _, err := repo.GetTransaction(ctx, "tx-1"); err != nil {
		t.Errorf("row should survive a foreign delete attempt: %v", err)
	}
}

func TestRepository_HealthProfileUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.GetHealthProfile(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetHealthProfile() on fresh user error = %v, want ErrNotFound", err)
	}

	h := core.HealthProfile{
		UserID:            "user-1",
		InvestmentCapital: core.Money{Cents: 100_000},
		TotalDebt:         core.Money{Cents: 5_000},
		EmergencyFund:     core.Money{Cents: 30_000},
	}
	if err := repo.UpsertHealthProfile(ctx, h); err != nil {
		t.Fatalf("UpsertHealthProfile() error = %v", err)
	}

	h.TotalDebt = core.Money{Cents: 0}
	if err := repo.UpsertHealthProfile(ctx, h); err != nil {
		t.Fatalf("second UpsertHealthProfile() error = %v", err)
	}

	got, err := repo.GetHealthProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetHealthProfile() error = %v", err)
	}
	if got.InvestmentCapital.Cents != 100_000 || got.TotalDebt.Cents != 0 {
		t.Errorf("GetHealthProfile() = %+v", got)
	}
}

func TestRepository_PortfolioProfileUpsert(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.GetPortfolioProfile(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPortfolioProfile() on fresh user error = %v, want ErrNotFound", err)
	}

	p := core.PortfolioProfile{UserID: "user-1", Risk: core.Conservative}
	if err := repo.UpsertPortfolioProfile(ctx, p); err != nil {
		t.Fatalf("UpsertPortfolioProfile() error = %v", err)
	}

	p.Risk = core.Aggressive
	if err := repo.UpsertPortfolioProfile(ctx, p); err != nil {
		t.Fatalf("second UpsertPortfolioProfile() error = %v", err)
	}

	got, err := repo.GetPortfolioProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetPortfolioProfile() error = %v", err)
	}
	if got.Risk != core.Aggressive {
		t.Errorf("risk = %v, want aggressive", got.Risk)
	}
}

func TestRepository_ExportLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		tx := storedTransaction(id, "user-1", core.NewDate(2025, 3, 15))
		if err := repo.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	pending, err := repo.ListPendingExportTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExportTransactions() error = %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	if err := repo.MarkExported(ctx, "tx-1"); err != nil {
		t.Fatalf("MarkExported() error = %v", err)
	}
	if err := repo.MarkExportError(ctx, "tx-2"); err != nil {
		t.Fatalf("MarkExportError() error = %v", err)
	}

	pending, err = repo.ListPendingExportTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExportTransactions() error = %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending after export = %d, want 2 (errored rows stay pending)", len(pending))
	}

	// Soft-deleted rows drop out of the pending set.
	if err := repo.SoftDeleteTransaction(ctx, "user-1", "tx-2"); err != nil {
		t.Fatalf("SoftDeleteTransaction() error = %v", err)
	}
	pending, err = repo.ListPendingExportTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("ListPendingExportTransactions() error = %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending after soft delete = %d, want 1", len(pending))
	}

	limited, err := repo.ListPendingExportTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListPendingExportTransactions() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited pending = %d, want 1", len(limited))
	}
}
