package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finpulse/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned when a requested row does not exist or has been
// soft-deleted.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction inserts a new transaction row.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, amount_cents, category, description, tx_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount.Cents,
		tx.Category, tx.Description, tx.Date.Format(dateLayout), tx.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"transaction_id", tx.ID,
		"user_id", tx.UserID,
		"type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)

	return nil
}

// GetTransaction returns a single transaction by id, excluding soft-deleted
// rows.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount_cents, category, description, tx_date, created_at
		FROM transactions
		WHERE id = ? AND deleted_at IS NULL`
	row := r.db.QueryRowContext(ctx, query, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the full (non-deleted) history for a user,
// ordered by date then creation time.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount_cents, category, description, tx_date, created_at
		FROM transactions
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY tx_date ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// SoftDeleteTransaction flags a transaction as deleted; the row is kept for
// the export trail. Only the owning user's rows are affected.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, userID, id string) error {
	query := `
		UPDATE transactions
		SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction soft-deleted", "transaction_id", id, "user_id", userID)
	return nil
}

// DeleteTransaction removes a row permanently.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetHealthProfile returns the user's health profile, or ErrNotFound when
// none has been saved yet.
func (r *SQLiteRepository) GetHealthProfile(ctx context.Context, userID string) (core.HealthProfile, error) {
	var h core.HealthProfile
	query := `
		SELECT user_id, investment_capital_cents, total_debt_cents, emergency_fund_cents
		FROM health_profiles
		WHERE user_id = ?`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&h.UserID, &h.InvestmentCapital.Cents, &h.TotalDebt.Cents, &h.EmergencyFund.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HealthProfile{}, ErrNotFound
	}
	if err != nil {
		return core.HealthProfile{}, fmt.Errorf("get health profile: %w", err)
	}
	return h, nil
}

// UpsertHealthProfile overwrites the user's health profile, creating it on
// first save.
func (r *SQLiteRepository) UpsertHealthProfile(ctx context.Context, h core.HealthProfile) error {
	query := `
		INSERT INTO health_profiles (user_id, investment_capital_cents, total_debt_cents, emergency_fund_cents, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			investment_capital_cents = excluded.investment_capital_cents,
			total_debt_cents = excluded.total_debt_cents,
			emergency_fund_cents = excluded.emergency_fund_cents,
			updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query,
		h.UserID, h.InvestmentCapital.Cents, h.TotalDebt.Cents, h.EmergencyFund.Cents)
	if err != nil {
		return fmt.Errorf("upsert health profile: %w", err)
	}
	return nil
}

// GetPortfolioProfile returns the user's portfolio profile, or ErrNotFound
// when none has been saved yet.
func (r *SQLiteRepository) GetPortfolioProfile(ctx context.Context, userID string) (core.PortfolioProfile, error) {
	var p core.PortfolioProfile
	var risk string
	query := `
		SELECT user_id, risk_profile, updated_at
		FROM portfolio_profiles
		WHERE user_id = ?`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &risk, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PortfolioProfile{}, ErrNotFound
	}
	if err != nil {
		return core.PortfolioProfile{}, fmt.Errorf("get portfolio profile: %w", err)
	}
	p.Risk = core.RiskProfile(risk)
	return p, nil
}

// UpsertPortfolioProfile overwrites the user's risk profile choice.
func (r *SQLiteRepository) UpsertPortfolioProfile(ctx context.Context, p core.PortfolioProfile) error {
	query := `
		INSERT INTO portfolio_profiles (user_id, risk_profile, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			risk_profile = excluded.risk_profile,
			updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, query, p.UserID, string(p.Risk))
	if err != nil {
		return fmt.Errorf("upsert portfolio profile: %w", err)
	}
	return nil
}

// ListPendingExportTransactions returns transactions not yet appended to
// the external ledger, oldest first. Soft-deleted rows are excluded: a row
// deleted before it was ever exported never leaves the local database.
func (r *SQLiteRepository) ListPendingExportTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, type, amount_cents, category, description, tx_date, created_at
		FROM transactions
		WHERE exported_at IS NULL AND deleted_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return out, nil
}

// MarkExported records a successful ledger append.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET exported_at = CURRENT_TIMESTAMP, export_error = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// MarkExportError flags a failed ledger append so the reconcile pass can
// retry it.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET export_error = export_error + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction flagged with export error", "transaction_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		typ     string
		rawDate string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount.Cents,
		&tx.Category, &tx.Description, &rawDate, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)

	d, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date %q: %w", rawDate, err)
	}
	tx.Date = core.Date{Time: d}
	return tx, nil
}
