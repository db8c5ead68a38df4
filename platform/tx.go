package platform

import (
	"context"
	"fmt"

	"github.com/syssam/dbkit"
)

// Beginner starts transactions. Platform and Tx implement it.
type Beginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// WithTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back when it returns an error or panics.
//
//	err := platform.WithTx(ctx, p, func(tx platform.Tx) error {
//	    if _, err := tx.Insert(ctx, sql.Insert("users").Set("name", sql.TextValue("a8m"))); err != nil {
//	        return err
//	    }
//	    return tx.CreateTable(ctx, pets)
//	})
func WithTx(ctx context.Context, b Beginner, fn func(tx Tx) error) error {
	tx, err := b.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: %w", err, &dbkit.RollbackError{Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("platform: committing transaction: %w", err)
	}
	return nil
}
