package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrStorageUnavailable is returned when no pooled connection could be acquired in time.
var ErrStorageUnavailable = errors.New("storage unavailable")

// TxFunc runs statements inside a transaction. ctx is detached from the caller's cancellation.
type TxFunc func(ctx context.Context, tx *sqlx.Tx) error

// WithTx acquires one pooled connection (waiting at most acquireTimeout), runs fn inside
// BEGIN/COMMIT and rolls back on any error. The connection is released on every path.
// Once the transaction has begun it is detached from ctx cancellation and runs to
// commit or rollback.
func WithTx(ctx context.Context, db *sqlx.DB, acquireTimeout time.Duration, fn TxFunc) (err error) {
	acquireCtx := ctx
	if acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, acquireTimeout)
		defer cancel()
	}

	conn, err := db.Connx(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: acquire connection: %v", ErrStorageUnavailable, err)
		}
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	txCtx := context.WithoutCancel(ctx)
	tx, err := conn.BeginTxx(txCtx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(txCtx, tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
