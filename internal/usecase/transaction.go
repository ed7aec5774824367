package usecase

import (
	"context"
	"errors"
	"fmt"
)

// WithTransaction runs fn inside a transaction. The transaction is committed
// when fn returns nil and rolled back on every other exit path, panics included.
func WithTransaction(ctx context.Context, txManager TransactionManager, fn func(tx Transaction) error) (err error) {
	tx, err := txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	finished := false
	defer func() {
		if finished {
			return
		}

		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}

		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rbErr))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	// A failed commit ends the transaction as well.
	finished = true
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
