// Package txrunner wraps the primary/replica pool bootstrap hands to
// Identity's registration, refresh, and password-reset-consume flows,
// each of which spans more than one repository write inside a single
// storage transaction (§4.7). Repositories are re-instantiated against the
// *sql.Tx for the duration of the callback since every adapter's DB
// interface (ExecContext/QueryContext/QueryRowContext) is satisfied by
// both the pool and a transaction.
package txrunner

import (
	"context"
	"database/sql"
	"fmt"
)

// Beginner is the subset of dbresolver.DB this package needs.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Run executes fn inside a transaction opened against db, committing on a
// nil return and rolling back otherwise.
func Run(ctx context.Context, db Beginner, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
