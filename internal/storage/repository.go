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

	"txdash/internal/core"
	"txdash/internal/source"

	_ "modernc.org/sqlite"
)

var _ source.Source = (*SQLiteRepository)(nil)

// SnapshotInfo describes the last snapshot written to the database.
type SnapshotInfo struct {
	Version   int64
	Source    string
	FetchedAt time.Time
}

// SQLiteRepository stores a local copy of both lists. Rows keep their
// insertion order so a snapshot reads back exactly as it was fetched.
type SQLiteRepository struct {
	db *sql.DB
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceSnapshot swaps both tables for the given lists in one transaction
// and bumps the snapshot version. It returns the new version.
func (r *SQLiteRepository) ReplaceSnapshot(ctx context.Context, src string, customers []core.Customer, transactions []core.Transaction) (int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	for _, stmt := range []string{"DELETE FROM customers", "DELETE FROM transactions"} {
		if _, err := dbTx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clear tables: %w", err)
		}
	}

	insCustomer, err := dbTx.PrepareContext(ctx, "INSERT INTO customers (id, name) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare customer insert: %w", err)
	}
	defer insCustomer.Close()
	for _, c := range customers {
		if _, err := insCustomer.ExecContext(ctx, c.ID, c.Name); err != nil {
			return 0, fmt.Errorf("insert customer %d: %w", c.ID, err)
		}
	}

	insTx, err := dbTx.PrepareContext(ctx, "INSERT INTO transactions (id, customer_id, date, amount) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer insTx.Close()
	for _, t := range transactions {
		if _, err := insTx.ExecContext(ctx, t.ID, t.CustomerID, t.Date, core.AmountString(t.Amount)); err != nil {
			return 0, fmt.Errorf("insert transaction %d: %w", t.ID, err)
		}
	}

	var version int64
	err = dbTx.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) + 1 FROM snapshot_meta").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("next snapshot version: %w", err)
	}
	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (singleton, version, source, fetched_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(singleton) DO UPDATE SET version = excluded.version, source = excluded.source, fetched_at = excluded.fetched_at`,
		version, src, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("write snapshot meta: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"version", version,
		"source", src,
		"customers", len(customers),
		"transactions", len(transactions))
	return version, nil
}

// ListCustomers implements source.CustomerReader
func (r *SQLiteRepository) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM customers ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []core.Customer
	for rows.Next() {
		var c core.Customer
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

// ListTransactions implements source.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, customer_id, date, amount FROM transactions ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			amount string
		)
		if err := rows.Scan(&t.ID, &t.CustomerID, &t.Date, &amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = core.ParseAmount(amount); err != nil {
			return nil, fmt.Errorf("transaction %d amount %q: %w", t.ID, amount, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetSnapshotInfo returns metadata about the stored snapshot, or ok=false if
// nothing has been written yet.
func (r *SQLiteRepository) GetSnapshotInfo(ctx context.Context) (SnapshotInfo, bool, error) {
	var (
		info      SnapshotInfo
		fetchedAt string
	)
	err := r.db.QueryRowContext(ctx, "SELECT version, source, fetched_at FROM snapshot_meta WHERE singleton = 1").
		Scan(&info.Version, &info.Source, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotInfo{}, false, nil
	}
	if err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("get snapshot info: %w", err)
	}
	if info.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return SnapshotInfo{}, false, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
	}
	return info, true, nil
}
