// Package dbx holds the small database plumbing shared by repositories:
// a DBTX interface satisfied by both *sql.DB and *sql.Tx, and a transaction
// helper that commits or rolls back around a callback.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql operations the repositories need.
// Passing a *sql.Tx scopes a repository to a transaction; passing a
// *sql.DB runs each call in auto-commit mode.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back when fn returns an error or panics; panics are
// rethrown after rollback.
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
