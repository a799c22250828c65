package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/padmajamazumder/parkit/internal/repository"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so every repository method
// can run standalone or join an ambient transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// querier returns the transaction carried by ctx, or db when there is none.
func querier(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx opens a database transaction, stores it in the context handed to
// fn and commits on success. Any error from fn or commit rolls back; lock
// and serialization failures come back wrapped in repository.ErrTxConflict
// so the caller can retry.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("TxManager.WithinTx (begin): %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("TxManager.WithinTx: rollback failed: %v", rbErr)
		}
		return translateTxErr(err)
	}

	if err := tx.Commit(); err != nil {
		return translateTxErr(fmt.Errorf("TxManager.WithinTx (commit): %w", err))
	}
	return nil
}

// translateTxErr maps the transient PostgreSQL failure classes
// (serialization_failure, deadlock_detected, lock_not_available) to
// repository.ErrTxConflict.
func translateTxErr(err error) error {
	if isTxConflict(err) {
		return fmt.Errorf("%w: %v", repository.ErrTxConflict, err)
	}
	return err
}
