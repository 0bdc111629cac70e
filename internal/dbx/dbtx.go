// Package dbx provides tiny DB abstractions shared by repositories:
// a minimal interface (DBTX) implemented by both *sql.DB and *sql.Tx,
// a helper to run functions inside a transaction, and bounded-time helpers
// for calls that leave the process.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/sethvargo/go-retry"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// WithTimeout bounds ctx by d. A non-positive d only adds cancellation.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// readRetryDelay is the pause before the single retry of a read.
var readRetryDelay = 50 * time.Millisecond

// RetryRead runs an idempotent read and retries it once on failure.
// Not-found results and validation errors are answers, not failures, and are
// returned immediately. Writes must never go through here.
func RetryRead[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T

	b := retry.WithMaxRetries(1, retry.NewConstant(readRetryDelay))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
			return nil
		}
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) {
			return err
		}
		return retry.RetryableError(err)
	})

	return out, err
}
