// Package storage persists the ledger in SQLite. Every mutating
// operation that touches a balance runs the event write and the balance
// update inside one transaction; nothing outside a committed transaction
// is ever observable.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradejournal/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

// New opens (creating if needed) the SQLite database at dbPath and brings
// the schema up to date.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath == ":memory:" {
		dsn = "file::memory:"
	} else if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite allows a single writer; one pooled connection also keeps
	// :memory: databases from fragmenting across connections.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on any error.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyBalanceDelta adds deltaCents to the user's running balance inside
// the caller's transaction. The additive UPDATE serializes concurrent
// deltas for one user at the storage layer; there is no read-then-write
// window to lose. Returns core.ErrNotFound when the user row is missing.
func applyBalanceDelta(ctx context.Context, tx *sql.Tx, userID, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET active_balance = active_balance + ? WHERE id = ?`,
		deltaCents, userID)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects SQLite unique-constraint failures, the
// backstop behind the pre-commit existence checks at registration.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
