package postgresql

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/padmajamazumder/parkit/internal/repository"
)

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM parking_spots WHERE lot_id = $1`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tm := NewTxManager(db)
	spotRepo := NewPgParkingSpotRepository(db)
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return spotRepo.DeleteByLot(ctx, 1)
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("opening sqlmock: %v", err)
	}
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	tm := NewTxManager(db)
	err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWithinTxTranslatesConflicts(t *testing.T) {
	// The pool is opened through the pgx stdlib driver, so conflicts surface
	// as *pgconn.PgError. The pq shape is kept for the lib/pq code path.
	cases := []struct {
		name string
		err  error
	}{
		{"pgx serialization failure", &pgconn.PgError{Code: "40001"}},
		{"pgx deadlock", &pgconn.PgError{Code: "40P01"}},
		{"pgx lock not available", &pgconn.PgError{Code: "55P03"}},
		{"pq serialization failure", &pq.Error{Code: "40001"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("opening sqlmock: %v", err)
			}
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectRollback()

			tm := NewTxManager(db)
			err = tm.WithinTx(context.Background(), func(ctx context.Context) error {
				return tc.err
			})
			if !errors.Is(err, repository.ErrTxConflict) {
				t.Fatalf("expected ErrTxConflict, got %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}
