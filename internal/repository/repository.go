package repository

import (
	"context"
	"errors"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
)

var ErrNotFound = errors.New("record not found")
var ErrDuplicateEntry = errors.New("record already exists")
var ErrNoSpotAvailable = errors.New("no available spots in this lot")
var ErrNoActiveReservation = errors.New("no active reservation for this spot")
var ErrSpotAlreadyReserved = errors.New("spot already has an open reservation")
var ErrReservationClosed = errors.New("reservation already closed")

// ErrTxConflict marks transient lock/serialization failures. Callers may
// retry the whole transaction a bounded number of times.
var ErrTxConflict = errors.New("transaction conflict")

// TxManager runs fn inside one atomic unit of work. Repository calls made
// with the context passed to fn join that transaction; fn returning an error
// rolls every write back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	ListNonAdmin(ctx context.Context) ([]domain.User, error)
	CountNonAdmin(ctx context.Context) (int, error)
}

type ParkingLotRepository interface {
	Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingLot, error)
	// FindBySpotID resolves a spot's owning lot by foreign key.
	FindBySpotID(ctx context.Context, spotID int) (*domain.ParkingLot, error)
	FindAll(ctx context.Context) ([]domain.ParkingLot, error)
	// FindByLocation filters by case-insensitive substring match on the
	// location name; an empty location matches every lot.
	FindByLocation(ctx context.Context, location string) ([]domain.ParkingLot, error)
	Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
	AdjustMaxSpots(ctx context.Context, id int, delta int) error
}

type ParkingSpotRepository interface {
	// ClaimFirstAvailable atomically selects the lowest-id available spot of
	// the lot and flips it to occupied. Concurrent claimers are guaranteed
	// distinct spots; ErrNoSpotAvailable when the lot is full.
	ClaimFirstAvailable(ctx context.Context, lotID int) (*domain.ParkingSpot, error)
	// Release flips an occupied spot back to available; ErrNotFound when the
	// spot does not exist or is not occupied.
	Release(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error)
	FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	CountByLot(ctx context.Context, lotID int) (domain.SpotCounts, error)
	CountAll(ctx context.Context) (domain.SpotCounts, error)
	AddSpots(ctx context.Context, lotID int, n int) error
	// RemoveAvailable deletes up to n available spots of the lot under row
	// locks and reports how many rows it removed. Occupied spots are never
	// touched; the caller decides whether removing fewer than n is an error.
	RemoveAvailable(ctx context.Context, lotID int, n int) (int, error)
	// LockByLot row-locks every spot of the lot inside the ambient
	// transaction so status checks stay valid until commit.
	LockByLot(ctx context.Context, lotID int) ([]domain.ParkingSpot, error)
	// DeleteAvailable removes one spot only while it is still available;
	// ErrNotFound when no such available row exists.
	DeleteAvailable(ctx context.Context, id int) error
	DeleteByLot(ctx context.Context, lotID int) error
}

type ReservationRepository interface {
	// Create opens a reservation. ErrSpotAlreadyReserved when an open
	// reservation already references the spot (defensive; unreachable as
	// long as claims go through the spot registry).
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	FindByID(ctx context.Context, id int) (*domain.Reservation, error)
	FindActiveBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error)
	// Close settles the reservation exactly once: conditional on it still
	// being open. ErrReservationClosed when it was already settled,
	// ErrNotFound when it does not exist.
	Close(ctx context.Context, id int, leavingTimestamp time.Time, cost float64) error
	// ListByUser returns the user's history, most recent parking time first.
	ListByUser(ctx context.Context, userID int) ([]domain.ReservationSummary, error)
	CountActive(ctx context.Context) (int, error)
}
