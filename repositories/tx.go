package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// TxRunner runs fn inside one transaction: commit on nil, rollback otherwise.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type postgresTxRunner struct {
	db     *sql.DB
	opts   *sql.TxOptions
	logger *slog.Logger
}

func NewPostgresTxRunner(db *sql.DB, logger *slog.Logger) TxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresTxRunner{
		db:     db,
		opts:   &sql.TxOptions{Isolation: sql.LevelRepeatableRead},
		logger: logger,
	}
}

func (r *postgresTxRunner) RunInTx(ctx context.Context, fn func(exec SQLExecutor) error) (txErr error) {
	tx, err := r.db.BeginTx(ctx, r.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			r.logger.WarnContext(ctx, "rolling back transaction", slog.Any("error", txErr))
			if rbErr := tx.Rollback(); rbErr != nil {
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = classifyTxError(fmt.Errorf("failed to commit transaction: %w", cErr))
		}
	}()

	return classifyTxError(fn(tx))
}
