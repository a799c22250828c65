package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
)

var ErrCapacityConflict = errors.New("not enough available spots to shrink the lot")
var ErrLotOccupied = errors.New("lot has occupied spots")
var ErrSpotOccupied = errors.New("spot is occupied")

// LotService manages lot metadata and spot capacity. Resizes and deletes run
// under transactions so that an occupancy check and the write it guards
// cannot be split by a concurrent booking.
type LotService struct {
	lotRepo  repository.ParkingLotRepository
	spotRepo repository.ParkingSpotRepository
	resRepo  repository.ReservationRepository
	userRepo repository.UserRepository
	tx       repository.TxManager
}

func NewLotService(
	lotRepo repository.ParkingLotRepository,
	spotRepo repository.ParkingSpotRepository,
	resRepo repository.ReservationRepository,
	userRepo repository.UserRepository,
	tx repository.TxManager,
) *LotService {
	return &LotService{
		lotRepo:  lotRepo,
		spotRepo: spotRepo,
		resRepo:  resRepo,
		userRepo: userRepo,
		tx:       tx,
	}
}

// CreateLot creates the lot and seeds max_spots available spots in one unit.
func (s *LotService) CreateLot(ctx context.Context, dto domain.ParkingLotDTO) (*domain.ParkingLot, error) {
	var created *domain.ParkingLot
	err := withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			lot, err := s.lotRepo.Create(ctx, &domain.ParkingLot{
				LocationName: dto.LocationName,
				Address:      dto.Address,
				Pincode:      dto.Pincode,
				PricePerHour: dto.PricePerHour,
				MaxSpots:     dto.MaxSpots,
			})
			if err != nil {
				return err
			}
			if dto.MaxSpots > 0 {
				if err := s.spotRepo.AddSpots(ctx, lot.ID, dto.MaxSpots); err != nil {
					return err
				}
			}
			created = lot
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Service: created lot %d (%s) with %d spots", created.ID, created.LocationName, created.MaxSpots)
	return created, nil
}

// UpdateLot applies the partial update. A max_spots change resizes capacity:
// growing adds available spots, shrinking removes available spots only. If
// fewer available spots exist than the shrink requires, nothing changes and
// ErrCapacityConflict is returned.
func (s *LotService) UpdateLot(ctx context.Context, id int, dto domain.ParkingLotUpdateDTO) (*domain.ParkingLot, error) {
	var updated *domain.ParkingLot
	err := withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			lot, err := s.lotRepo.FindByID(ctx, id)
			if err != nil {
				return err
			}

			if dto.LocationName != nil {
				lot.LocationName = *dto.LocationName
			}
			if dto.Address != nil {
				lot.Address = *dto.Address
			}
			if dto.Pincode != nil {
				lot.Pincode = *dto.Pincode
			}
			if dto.PricePerHour != nil {
				lot.PricePerHour = *dto.PricePerHour
			}

			if dto.MaxSpots != nil && *dto.MaxSpots != lot.MaxSpots {
				delta := *dto.MaxSpots - lot.MaxSpots
				if delta > 0 {
					if err := s.spotRepo.AddSpots(ctx, lot.ID, delta); err != nil {
						return err
					}
				} else {
					removed, err := s.spotRepo.RemoveAvailable(ctx, lot.ID, -delta)
					if err != nil {
						return err
					}
					if removed < -delta {
						return fmt.Errorf("%w: need to remove %d, only %d available", ErrCapacityConflict, -delta, removed)
					}
				}
				lot.MaxSpots = *dto.MaxSpots
			}

			updated, err = s.lotRepo.Update(ctx, lot)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLot removes the lot and all its spots, but only while every spot is
// available. The per-spot check holds until commit via row locks.
func (s *LotService) DeleteLot(ctx context.Context, id int) error {
	err := withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			if _, err := s.lotRepo.FindByID(ctx, id); err != nil {
				return err
			}
			spots, err := s.spotRepo.LockByLot(ctx, id)
			if err != nil {
				return err
			}
			for _, spot := range spots {
				if spot.Status == domain.SpotOccupied {
					return fmt.Errorf("%w: spot %d", ErrLotOccupied, spot.ID)
				}
			}
			if err := s.spotRepo.DeleteByLot(ctx, id); err != nil {
				return err
			}
			return s.lotRepo.Delete(ctx, id)
		})
	})
	if err != nil {
		return err
	}
	log.Printf("Service: deleted lot %d", id)
	return nil
}

// DeleteSpot removes one spot while it is still available and shrinks the
// lot's max_spots accordingly.
func (s *LotService) DeleteSpot(ctx context.Context, id int) error {
	return withRetry(func() error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			spot, err := s.spotRepo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if spot.Status == domain.SpotOccupied {
				return ErrSpotOccupied
			}
			if err := s.spotRepo.DeleteAvailable(ctx, id); err != nil {
				// Lost the race to a concurrent claim after the read above.
				if errors.Is(err, repository.ErrNotFound) {
					return ErrSpotOccupied
				}
				return err
			}
			return s.lotRepo.AdjustMaxSpots(ctx, spot.LotID, -1)
		})
	})
}

func (s *LotService) GetLot(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return s.lotRepo.FindByID(ctx, id)
}

func (s *LotService) ListLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.lotRepo.FindAll(ctx)
}

func (s *LotService) GetSpot(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return s.spotRepo.FindByID(ctx, id)
}

func (s *LotService) ListSpots(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	if _, err := s.lotRepo.FindByID(ctx, lotID); err != nil {
		return nil, err
	}
	return s.spotRepo.FindByLotID(ctx, lotID)
}

// Summary aggregates system-wide occupancy plus a per-lot breakdown.
func (s *LotService) Summary(ctx context.Context) (*domain.SystemSummary, error) {
	totalLots, err := s.lotRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.spotRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.userRepo.CountNonAdmin(ctx)
	if err != nil {
		return nil, err
	}
	activeReservations, err := s.resRepo.CountActive(ctx)
	if err != nil {
		return nil, err
	}

	lots, err := s.lotRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	occupancies := make([]domain.LotOccupancy, 0, len(lots))
	for _, lot := range lots {
		lotCounts, err := s.spotRepo.CountByLot(ctx, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("counting spots for lot %d: %w", lot.ID, err)
		}
		total := lotCounts.Available + lotCounts.Occupied
		rate := 0.0
		if total > 0 {
			rate = float64(lotCounts.Occupied) / float64(total) * 100
		}
		occupancies = append(occupancies, domain.LotOccupancy{
			ID:             lot.ID,
			LocationName:   lot.LocationName,
			TotalSpots:     total,
			OccupiedSpots:  lotCounts.Occupied,
			AvailableSpots: lotCounts.Available,
			OccupancyRate:  rate,
		})
	}

	return &domain.SystemSummary{
		Overview: domain.SystemOverview{
			TotalLots:          totalLots,
			TotalSpots:         counts.Available + counts.Occupied,
			OccupiedSpots:      counts.Occupied,
			AvailableSpots:     counts.Available,
			TotalUsers:         totalUsers,
			ActiveReservations: activeReservations,
		},
		Lots: occupancies,
	}, nil
}

// AdminSearch lists matching lots with their full spot maps. When userID is
// set, each occupied spot is flagged if that user holds its open reservation.
func (s *LotService) AdminSearch(ctx context.Context, location string, userID int) ([]domain.LotWithSpots, error) {
	lots, err := s.lotRepo.FindByLocation(ctx, location)
	if err != nil {
		return nil, err
	}
	results := make([]domain.LotWithSpots, 0, len(lots))
	for _, lot := range lots {
		spots, err := s.spotRepo.FindByLotID(ctx, lot.ID)
		if err != nil {
			return nil, fmt.Errorf("listing spots for lot %d: %w", lot.ID, err)
		}
		adminSpots := make([]domain.AdminSpot, 0, len(spots))
		for _, spot := range spots {
			entry := domain.AdminSpot{ParkingSpot: spot}
			if userID > 0 && spot.Status == domain.SpotOccupied {
				res, err := s.resRepo.FindActiveBySpotID(ctx, spot.ID)
				if err != nil && !errors.Is(err, repository.ErrNoActiveReservation) {
					return nil, fmt.Errorf("resolving reservation for spot %d: %w", spot.ID, err)
				}
				entry.ReservedByUser = err == nil && res.UserID == userID
			}
			adminSpots = append(adminSpots, entry)
		}
		results = append(results, domain.LotWithSpots{ParkingLot: lot, Spots: adminSpots})
	}
	return results, nil
}
