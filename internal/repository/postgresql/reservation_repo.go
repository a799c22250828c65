package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
)

type pgReservationRepository struct {
	db *sql.DB
}

func NewPgReservationRepository(db *sql.DB) repository.ReservationRepository {
	return &pgReservationRepository{db: db}
}

func (r *pgReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	query := `INSERT INTO reservations (spot_id, user_id, vehicle_number, parking_timestamp, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		res.SpotID, res.UserID, res.VehicleNumber, res.ParkingTimestamp,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "reservations_spot_id_open_key") {
			return nil, fmt.Errorf("%w: spot %d", repository.ErrSpotAlreadyReserved, res.SpotID.Int64)
		}
		return nil, fmt.Errorf("ReservationRepository.Create: %w", err)
	}
	res.ParkingTimestamp = res.ParkingTimestamp.In(time.UTC)
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	res.UpdatedAt = res.UpdatedAt.In(time.UTC)
	return res, nil
}

const reservationColumns = `id, spot_id, user_id, vehicle_number, parking_timestamp, leaving_timestamp, parking_cost, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }, res *domain.Reservation) error {
	return row.Scan(&res.ID, &res.SpotID, &res.UserID, &res.VehicleNumber,
		&res.ParkingTimestamp, &res.LeavingTimestamp, &res.ParkingCost,
		&res.CreatedAt, &res.UpdatedAt)
}

func normalizeReservation(res *domain.Reservation) {
	res.ParkingTimestamp = res.ParkingTimestamp.In(time.UTC)
	if res.LeavingTimestamp.Valid {
		res.LeavingTimestamp.Time = res.LeavingTimestamp.Time.In(time.UTC)
	}
	res.CreatedAt = res.CreatedAt.In(time.UTC)
	res.UpdatedAt = res.UpdatedAt.In(time.UTC)
}

func (r *pgReservationRepository) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	err := scanReservation(querier(ctx, r.db).QueryRowContext(ctx, query, id), res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ReservationRepository.FindByID: %w", err)
	}
	normalizeReservation(res)
	return res, nil
}

func (r *pgReservationRepository) FindActiveBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE spot_id = $1 AND leaving_timestamp IS NULL`
	err := scanReservation(querier(ctx, r.db).QueryRowContext(ctx, query, spotID), res)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveReservation
		}
		return nil, fmt.Errorf("ReservationRepository.FindActiveBySpotID: %w", err)
	}
	normalizeReservation(res)
	return res, nil
}

// Close settles the reservation with a conditional write: the guard on
// leaving_timestamp IS NULL makes two racing releases resolve to exactly one
// winner regardless of interleaving.
func (r *pgReservationRepository) Close(ctx context.Context, id int, leavingTimestamp time.Time, cost float64) error {
	query := `UPDATE reservations
	           SET leaving_timestamp = $1, parking_cost = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $3 AND leaving_timestamp IS NULL`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, leavingTimestamp, cost, id)
	if err != nil {
		return fmt.Errorf("ReservationRepository.Close: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ReservationRepository.Close (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		var exists bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`
		if err := querier(ctx, r.db).QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("ReservationRepository.Close (existence check): %w", err)
		}
		if exists {
			return repository.ErrReservationClosed
		}
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgReservationRepository) ListByUser(ctx context.Context, userID int) ([]domain.ReservationSummary, error) {
	// LEFT JOIN: history rows whose spot was removed keep appearing with
	// null spot and lot ids.
	query := `SELECT r.id, r.spot_id, s.lot_id, r.vehicle_number, r.parking_timestamp, r.leaving_timestamp, r.parking_cost
	           FROM reservations r
	           LEFT JOIN parking_spots s ON s.id = r.spot_id
	           WHERE r.user_id = $1
	           ORDER BY r.parking_timestamp DESC, r.id DESC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ReservationRepository.ListByUser: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ReservationSummary
	for rows.Next() {
		var sum domain.ReservationSummary
		if err := rows.Scan(
			&sum.ReservationID, &sum.SpotID, &sum.LotID, &sum.VehicleNumber,
			&sum.ParkingTimestamp, &sum.LeavingTimestamp, &sum.ParkingCost,
		); err != nil {
			return nil, fmt.Errorf("ReservationRepository.ListByUser (scanning row): %w", err)
		}
		sum.ParkingTimestamp = sum.ParkingTimestamp.In(time.UTC)
		if sum.LeavingTimestamp.Valid {
			sum.LeavingTimestamp.Time = sum.LeavingTimestamp.Time.In(time.UTC)
		}
		summaries = append(summaries, sum)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ReservationRepository.ListByUser (rows error): %w", err)
	}
	return summaries, nil
}

func (r *pgReservationRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM reservations WHERE leaving_timestamp IS NULL`
	if err := querier(ctx, r.db).QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("ReservationRepository.CountActive: %w", err)
	}
	return count, nil
}
