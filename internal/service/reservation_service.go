package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/padmajamazumder/parkit/internal/billing"
	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
)

var ErrNotOwner = errors.New("reservation belongs to another user")
var ErrAlreadyReleased = errors.New("reservation already released")
var ErrSpotNotOccupied = errors.New("spot is not occupied")

// maxTxAttempts bounds the transparent retry on transient transaction
// conflicts before the failure is surfaced to the caller.
const maxTxAttempts = 3

// ReservationService is the allocation engine: it owns every transition of
// spot status and reservation lifecycle. The acting user's identity is an
// explicit parameter on each operation, never ambient state.
type ReservationService struct {
	lotRepo  repository.ParkingLotRepository
	spotRepo repository.ParkingSpotRepository
	resRepo  repository.ReservationRepository
	tx       repository.TxManager
	now      func() time.Time
}

func NewReservationService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	resRepo repository.ReservationRepository,
	tx repository.TxManager,
) *ReservationService {
	return &ReservationService{
		lotRepo:  lotRepo,
		spotRepo: spotRepo,
		resRepo:  resRepo,
		tx:       tx,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func withRetry(fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrTxConflict) {
			return err
		}
		log.Printf("Service: transaction conflict (attempt %d/%d), retrying: %v", attempt, maxTxAttempts, err)
	}
	return err
}

// Book claims an available spot in the lot and opens a reservation for it,
// as one atomic unit. Concurrent bookings on the same lot either get
// distinct spots or repository.ErrNoSpotAvailable.
func (s *ReservationService) Book(ctx context.Context, userID int, dto domain.BookSpotDTO) (*domain.BookingConfirmation, error) {
	if _, err := s.lotRepo.FindByID(ctx, dto.LotID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: parking lot %d", repository.ErrNotFound, dto.LotID)
		}
		return nil, fmt.Errorf("checking parking lot: %w", err)
	}

	var conf *domain.BookingConfirmation
	err := withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			spot, err := s.spotRepo.ClaimFirstAvailable(ctx, dto.LotID)
			if err != nil {
				return err
			}
			created, err := s.resRepo.Create(ctx, &domain.Reservation{
				SpotID:           null.IntFrom(int64(spot.ID)),
				UserID:           userID,
				VehicleNumber:    dto.VehicleNumber,
				ParkingTimestamp: s.now(),
			})
			if err != nil {
				return err
			}
			conf = &domain.BookingConfirmation{ReservationID: created.ID, SpotID: spot.ID}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Service: booked spot %d (reservation %d) in lot %d for user %d",
		conf.SpotID, conf.ReservationID, dto.LotID, userID)
	return conf, nil
}

// Release closes the reservation, settles the pro-rated final cost and
// frees the spot, as one atomic unit. Only the owning user may release.
func (s *ReservationService) Release(ctx context.Context, userID int, reservationID int) (float64, error) {
	res, err := s.resRepo.FindByID(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	if res.UserID != userID {
		return 0, ErrNotOwner
	}
	if res.LeavingTimestamp.Valid {
		return 0, ErrAlreadyReleased
	}
	// Open reservations always reference a live spot.
	spotID := int(res.SpotID.Int64)

	lot, err := s.lotRepo.FindBySpotID(ctx, spotID)
	if err != nil {
		return 0, fmt.Errorf("resolving lot for spot %d: %w", spotID, err)
	}

	leavingTime := s.now()
	cost, err := billing.FinalCost(res.ParkingTimestamp, leavingTime, lot.PricePerHour)
	if err != nil {
		return 0, fmt.Errorf("computing final cost: %w", err)
	}

	err = withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if err := s.resRepo.Close(ctx, res.ID, leavingTime, cost); err != nil {
				// A concurrent release can win between the read above and
				// this write; the conditional close turns that into exactly
				// one winner.
				if errors.Is(err, repository.ErrReservationClosed) {
					return ErrAlreadyReleased
				}
				return err
			}
			return s.spotRepo.Release(ctx, spotID)
		})
	})
	if err != nil {
		return 0, err
	}
	log.Printf("Service: released reservation %d (spot %d) for user %d, cost %.2f",
		res.ID, spotID, userID, cost)
	return cost, nil
}

// CurrentCost reports the open reservation on an occupied spot together
// with the live-estimate charge. Read-only.
func (s *ReservationService) CurrentCost(ctx context.Context, spotID int) (*domain.OccupancyReport, error) {
	spot, err := s.spotRepo.FindByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if spot.Status != domain.SpotOccupied {
		return nil, ErrSpotNotOccupied
	}

	res, err := s.resRepo.FindActiveBySpotID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	lot, err := s.lotRepo.FindByID(ctx, spot.LotID)
	if err != nil {
		return nil, fmt.Errorf("resolving lot %d: %w", spot.LotID, err)
	}

	cost, err := billing.EstimateCost(res.ParkingTimestamp, s.now(), lot.PricePerHour)
	if err != nil {
		return nil, fmt.Errorf("computing live cost: %w", err)
	}
	return &domain.OccupancyReport{
		UserID:           res.UserID,
		VehicleNumber:    res.VehicleNumber,
		ParkingTimestamp: res.ParkingTimestamp,
		ParkingCost:      cost,
	}, nil
}

// Dashboard returns the user's reservation history, newest first, with the
// derived Active/Released status on each row.
func (s *ReservationService) Dashboard(ctx context.Context, userID int) ([]domain.ReservationSummary, error) {
	summaries, err := s.resRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		if summaries[i].LeavingTimestamp.Valid {
			summaries[i].Status = domain.ReservationReleased
		} else {
			summaries[i].Status = domain.ReservationActive
		}
	}
	return summaries, nil
}

// SearchLots lists lots matching the location filter with their current
// available-spot counts.
func (s *ReservationService) SearchLots(ctx context.Context, location string) ([]domain.LotAvailability, error) {
	lots, err := s.lotRepo.FindByLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	results := make([]domain.LotAvailability, 0, len(lots))
	for _, lot := range lots {
		counts, err := s.spotRepo.CountByLot(ctx, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("counting spots for lot %d: %w", lot.ID, err)
		}
		results = append(results, domain.LotAvailability{
			ParkingLot:     lot,
			AvailableSpots: counts.Available,
		})
	}
	return results, nil
}
