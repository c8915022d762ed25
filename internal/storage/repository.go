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

	"finsphere/internal/core"

	_ "modernc.org/sqlite"
)

const (
	upsertTransactionSQL = `INSERT INTO transactions (id, occurred_at, amount_cents, description, merchant, category, type, account)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    occurred_at = excluded.occurred_at,
    amount_cents = excluded.amount_cents,
    description = excluded.description,
    merchant = excluded.merchant,
    category = excluded.category,
    type = excluded.type,
    account = excluded.account`

	selectColumns = `SELECT id, occurred_at, amount_cents, description, merchant, category, type, account FROM transactions`

	queryRecentSQL = selectColumns + ` WHERE occurred_at >= ? ORDER BY occurred_at DESC, id ASC`
	getByIDSQL     = selectColumns + ` WHERE id = ?`
)

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
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

	return NewRepositoryWithDB(db), nil
}

// NewRepositoryWithDB wraps an already migrated connection.
func NewRepositoryWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used to compute query windows.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Upsert implements TransactionWriter
func (r *SQLiteRepository) Upsert(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	category := sql.NullString{String: tx.Category, Valid: tx.HasCategory()}

	_, err := r.db.ExecContext(ctx, upsertTransactionSQL,
		tx.ID,
		tx.Date.UTC().UnixNano(),
		tx.Amount.Cents,
		tx.Description,
		tx.Merchant,
		category,
		string(tx.Type),
		tx.AccountOrDefault(),
	)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"type", tx.Type)

	return nil
}

// Query implements TransactionReader
func (r *SQLiteRepository) Query(ctx context.Context, sinceDays int) ([]core.Transaction, error) {
	cutoff := r.now().Add(-time.Duration(sinceDays) * 24 * time.Hour)

	rows, err := r.db.QueryContext(ctx, queryRecentSQL, cutoff.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query transactions since %d days: %w", sinceDays, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// Get returns a single transaction by ID
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, getByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx         core.Transaction
		occurredAt int64
		category   sql.NullString
		typ        string
	)
	err := row.Scan(&tx.ID, &occurredAt, &tx.Amount.Cents, &tx.Description, &tx.Merchant, &category, &typ, &tx.Account)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	tx.Date = time.Unix(0, occurredAt).UTC()
	tx.Category = category.String
	tx.Type = core.TransactionType(typ)
	return tx, nil
}
