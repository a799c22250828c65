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

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

const lotColumns = `id, location_name, address, pincode, price_per_hour, max_spots, created_at, updated_at`

func scanLot(row interface{ Scan(...any) error }, lot *domain.ParkingLot) error {
	return row.Scan(&lot.ID, &lot.LocationName, &lot.Address, &lot.Pincode,
		&lot.PricePerHour, &lot.MaxSpots, &lot.CreatedAt, &lot.UpdatedAt)
}

func (r *pgParkingLotRepository) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `INSERT INTO parking_lots (location_name, address, pincode, price_per_hour, max_spots)
	           VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		lot.LocationName, lot.Address, lot.Pincode, lot.PricePerHour, lot.MaxSpots,
	).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.Create: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	err := scanLot(querier(ctx, r.db).QueryRowContext(ctx, query, id), lot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindBySpotID(ctx context.Context, spotID int) (*domain.ParkingLot, error) {
	lot := &domain.ParkingLot{}
	query := `SELECT l.id, l.location_name, l.address, l.pincode, l.price_per_hour, l.max_spots, l.created_at, l.updated_at
	           FROM parking_lots l
	           JOIN parking_spots s ON s.lot_id = l.id
	           WHERE s.id = $1`
	err := scanLot(querier(ctx, r.db).QueryRowContext(ctx, query, spotID), lot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindBySpotID: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots ORDER BY location_name`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAll: %w", err)
	}
	defer rows.Close()
	return collectLots(rows, "FindAll")
}

func (r *pgParkingLotRepository) FindByLocation(ctx context.Context, location string) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots
	           WHERE location_name ILIKE '%' || $1 || '%' ORDER BY location_name`
	rows, err := querier(ctx, r.db).QueryContext(ctx, query, location)
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindByLocation: %w", err)
	}
	defer rows.Close()
	return collectLots(rows, "FindByLocation")
}

func collectLots(rows *sql.Rows, op string) ([]domain.ParkingLot, error) {
	var lots []domain.ParkingLot
	for rows.Next() {
		var lot domain.ParkingLot
		if err := scanLot(rows, &lot); err != nil {
			return nil, fmt.Errorf("ParkingLotRepository.%s (scanning row): %w", op, err)
		}
		lot.CreatedAt = lot.CreatedAt.In(time.UTC)
		lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.%s (rows error): %w", op, err)
	}
	return lots, nil
}

func (r *pgParkingLotRepository) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	query := `UPDATE parking_lots
	           SET location_name = $1, address = $2, pincode = $3, price_per_hour = $4, max_spots = $5, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $6 RETURNING updated_at`
	err := querier(ctx, r.db).QueryRowContext(ctx, query,
		lot.LocationName, lot.Address, lot.Pincode, lot.PricePerHour, lot.MaxSpots, lot.ID,
	).Scan(&lot.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.Update: %w", err)
	}
	lot.UpdatedAt = lot.UpdatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) Delete(ctx context.Context, id int) error {
	result, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM parking_lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingLotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := querier(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_lots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("ParkingLotRepository.Count: %w", err)
	}
	return count, nil
}

func (r *pgParkingLotRepository) AdjustMaxSpots(ctx context.Context, id int, delta int) error {
	query := `UPDATE parking_lots SET max_spots = max_spots + $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	result, err := querier(ctx, r.db).ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.AdjustMaxSpots: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingLotRepository.AdjustMaxSpots (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
