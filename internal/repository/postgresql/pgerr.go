package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE classes this package reacts to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// sqlState extracts the SQLSTATE code and constraint name from a PostgreSQL
// driver error. The pool is opened with the pgx stdlib driver, which returns
// *pgconn.PgError; *pq.Error is recognized too for callers still on lib/pq.
func sqlState(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}

// isUniqueViolation reports whether err is a unique_violation; a non-empty
// constraint restricts the match to that named constraint.
func isUniqueViolation(err error, constraint string) bool {
	code, name, ok := sqlState(err)
	if !ok || code != codeUniqueViolation {
		return false
	}
	return constraint == "" || name == constraint
}

// isTxConflict reports whether err is one of the transient failure classes
// (serialization_failure, deadlock_detected, lock_not_available) worth
// retrying in a fresh transaction.
func isTxConflict(err error) bool {
	code, _, ok := sqlState(err)
	if !ok {
		return false
	}
	switch code {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}
