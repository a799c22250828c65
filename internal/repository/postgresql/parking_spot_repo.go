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

type pgParkingSpotRepository struct {
	db *sql.DB
}

func NewPgParkingSpotRepository(db *sql.DB) repository.ParkingSpotRepository {
	return &pgParkingSpotRepository{db: db}
}

// ClaimFirstAvailable selects and occupies a spot in one statement. The
// SKIP LOCKED subselect makes concurrent claimers pass over rows another
// transaction is claiming instead of blocking on them, so two bookings can
// never be handed the same spot.
func (r *pgParkingSpotRepository) ClaimFirstAvailable(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `UPDATE parking_spots
	           SET status = $1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = (
	               SELECT id FROM parking_spots
	               WHERE lot_id = $2 AND status = $3
	               ORDER BY id
	               LIMIT 1
	               FOR UPDATE SKIP LOCKED
	           )
	           RETURNING id, lot_id, status, created_at, updated_at`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		domain.SpotOccupied, lotID, domain.SpotAvailable,
	).Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoSpotAvailable
		}
		return nil, fmt.Errorf("ParkingSpotRepository.ClaimFirstAvailable: %w", err)
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) Release(ctx context.Context, id int) error {
	query := `UPDATE parking_spots
	           SET status = $1, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $2 AND status = $3`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, domain.SpotAvailable, id, domain.SpotOccupied)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Release: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.Release (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	spot := &domain.ParkingSpot{}
	query := `SELECT id, lot_id, status, created_at, updated_at FROM parking_spots WHERE id = $1`
	err := querier(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpotRepository.FindByID: %w", err)
	}
	spot.CreatedAt = spot.CreatedAt.In(time.UTC)
	spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
	return spot, nil
}

func (r *pgParkingSpotRepository) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, status, created_at, updated_at FROM parking_spots WHERE lot_id = $1 ORDER BY id`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.FindByLotID: %w", err)
	}
	defer rows.Close()
	return collectSpots(rows, "FindByLotID")
}

func collectSpots(rows *sql.Rows, op string) ([]domain.ParkingSpot, error) {
	var spots []domain.ParkingSpot
	for rows.Next() {
		var spot domain.ParkingSpot
		if err := rows.Scan(&spot.ID, &spot.LotID, &spot.Status, &spot.CreatedAt, &spot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ParkingSpotRepository.%s (scanning row): %w", op, err)
		}
		spot.CreatedAt = spot.CreatedAt.In(time.UTC)
		spot.UpdatedAt = spot.UpdatedAt.In(time.UTC)
		spots = append(spots, spot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.%s (rows error): %w", op, err)
	}
	return spots, nil
}

func (r *pgParkingSpotRepository) CountByLot(ctx context.Context, lotID int) (domain.SpotCounts, error) {
	var counts domain.SpotCounts
	query := `SELECT COUNT(*) FILTER (WHERE status = $1), COUNT(*) FILTER (WHERE status = $2)
	           FROM parking_spots WHERE lot_id = $3`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		domain.SpotAvailable, domain.SpotOccupied, lotID,
	).Scan(&counts.Available, &counts.Occupied)
	if err != nil {
		return domain.SpotCounts{}, fmt.Errorf("ParkingSpotRepository.CountByLot: %w", err)
	}
	return counts, nil
}

func (r *pgParkingSpotRepository) CountAll(ctx context.Context) (domain.SpotCounts, error) {
	var counts domain.SpotCounts
	query := `SELECT COUNT(*) FILTER (WHERE status = $1), COUNT(*) FILTER (WHERE status = $2) FROM parking_spots`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		domain.SpotAvailable, domain.SpotOccupied,
	).Scan(&counts.Available, &counts.Occupied)
	if err != nil {
		return domain.SpotCounts{}, fmt.Errorf("ParkingSpotRepository.CountAll: %w", err)
	}
	return counts, nil
}

func (r *pgParkingSpotRepository) AddSpots(ctx context.Context, lotID int, n int) error {
	if n <= 0 {
		return nil
	}
	query := `INSERT INTO parking_spots (lot_id, status, created_at, updated_at)
	           SELECT $1, $2, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP FROM generate_series(1, $3)`
	if _, err := querier(ctx, r.db).ExecContext(ctx, query, lotID, domain.SpotAvailable, n); err != nil {
		return fmt.Errorf("ParkingSpotRepository.AddSpots: %w", err)
	}
	return nil
}

// RemoveAvailable deletes newest-first so low spot ids stay stable. Rows
// being claimed concurrently are skipped, which keeps the removed count
// honest for the caller's capacity check.
func (r *pgParkingSpotRepository) RemoveAvailable(ctx context.Context, lotID int, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	query := `DELETE FROM parking_spots
	           WHERE id IN (
	               SELECT id FROM parking_spots
	               WHERE lot_id = $1 AND status = $2
	               ORDER BY id DESC
	               LIMIT $3
	               FOR UPDATE SKIP LOCKED
	           )`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, lotID, domain.SpotAvailable, n)
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.RemoveAvailable: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingSpotRepository.RemoveAvailable (checking rows affected): %w", err)
	}
	return int(rowsAffected), nil
}

func (r *pgParkingSpotRepository) LockByLot(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	query := `SELECT id, lot_id, status, created_at, updated_at FROM parking_spots
	           WHERE lot_id = $1 ORDER BY id FOR UPDATE`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, lotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpotRepository.LockByLot: %w", err)
	}
	defer rows.Close()
	return collectSpots(rows, "LockByLot")
}

func (r *pgParkingSpotRepository) DeleteAvailable(ctx context.Context, id int) error {
	query := `DELETE FROM parking_spots WHERE id = $1 AND status = $2`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, id, domain.SpotAvailable)
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.DeleteAvailable: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpotRepository.DeleteAvailable (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpotRepository) DeleteByLot(ctx context.Context, lotID int) error {
	if _, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM parking_spots WHERE lot_id = $1`, lotID); err != nil {
		return fmt.Errorf("ParkingSpotRepository.DeleteByLot: %w", err)
	}
	return nil
}
