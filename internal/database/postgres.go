// Package database manages the postgres connection pool and the transaction
// discipline shared by every mutating operation in the ledger.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ErrContention is returned when a transaction loses a lock or serialization
// race. No partial effect survives; the operation is safe to retry.
var ErrContention = errors.New("transaction aborted due to contention")

// Querier is satisfied by both *sql.DB and *sql.Tx, so repository methods can
// run standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps sql.DB with the lock timeout applied to every transaction.
type DB struct {
	*sql.DB
	lockTimeout time.Duration
}

// Open connects to postgres and verifies the connection.
func Open(databaseURL string, lockTimeout time.Duration) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, lockTimeout: lockTimeout}, nil
}

// RunInTx executes fn inside a single transaction. A bounded lock_timeout is
// set so a mutation that cannot acquire its row locks aborts instead of
// queueing indefinitely; lock timeouts, deadlocks, serialization failures and
// insert races all surface as ErrContention after rollback.
func (d *DB) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	timeoutMs := d.lockTimeout.Milliseconds()
	if timeoutMs <= 0 {
		timeoutMs = 3000
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeoutMs)); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return mapContention(err)
	}

	if err := tx.Commit(); err != nil {
		return mapContention(fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// mapContention translates the postgres conflict classes into ErrContention.
// 55P03 lock_not_available, 40001 serialization_failure, 40P01
// deadlock_detected, 23505 unique_violation (two writers inserting the same
// debt row after both observed it absent).
func mapContention(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01", "23505":
			return fmt.Errorf("%w: %v", ErrContention, err)
		}
	}
	return err
}
