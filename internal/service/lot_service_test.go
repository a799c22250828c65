package service

import (
	"context"
	"errors"
	"testing"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
	"github.com/padmajamazumder/parkit/internal/repository/inmem"
)

func newTestLotService(store *inmem.Store) *LotService {
	return NewLotService(store.Lots(), store.Spots(), store.Reservations(), store.Users(), store)
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestCreateLotSeedsSpots(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestLotService(store)
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central",
		Address:      "1 Main St",
		Pincode:      "700001",
		PricePerHour: 10,
		MaxSpots:     4,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}

	counts, err := store.CountByLot(ctx, lot.ID)
	if err != nil {
		t.Fatalf("counting spots: %v", err)
	}
	if counts.Available != 4 || counts.Occupied != 0 {
		t.Fatalf("expected 4 available spots, got %+v", counts)
	}
}

func TestUpdateLotGrowsCapacity(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestLotService(store)
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 2,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}

	updated, err := svc.UpdateLot(ctx, lot.ID, domain.ParkingLotUpdateDTO{MaxSpots: intPtr(5)})
	if err != nil {
		t.Fatalf("updating lot: %v", err)
	}
	if updated.MaxSpots != 5 {
		t.Fatalf("expected max_spots 5, got %d", updated.MaxSpots)
	}

	counts, _ := store.CountByLot(ctx, lot.ID)
	if counts.Available != 5 {
		t.Fatalf("expected 5 available spots, got %+v", counts)
	}
}

func TestUpdateLotShrinksOnlyAvailable(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 3,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	conf, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	// Shrinking to 1 requires removing 2, only 2 available. Fine.
	updated, err := lotSvc.UpdateLot(ctx, lot.ID, domain.ParkingLotUpdateDTO{MaxSpots: intPtr(1)})
	if err != nil {
		t.Fatalf("shrinking lot: %v", err)
	}
	if updated.MaxSpots != 1 {
		t.Fatalf("expected max_spots 1, got %d", updated.MaxSpots)
	}

	counts, _ := store.CountByLot(ctx, lot.ID)
	if counts.Occupied != 1 || counts.Available != 0 {
		t.Fatalf("expected only the occupied spot left, got %+v", counts)
	}

	// The occupied spot survived the shrink.
	if _, err := store.FindSpotByID(ctx, conf.SpotID); err != nil {
		t.Fatalf("occupied spot was removed: %v", err)
	}
}

func TestUpdateLotShrinkBelowOccupancy(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 3,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"}); err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
	}

	// Shrinking to 1 would need to remove 2 but only 1 spot is available.
	_, err = lotSvc.UpdateLot(ctx, lot.ID, domain.ParkingLotUpdateDTO{MaxSpots: intPtr(1)})
	if !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("expected ErrCapacityConflict, got %v", err)
	}

	// Nothing changed: capacity and spots are as before.
	reread, err := store.FindLotByID(ctx, lot.ID)
	if err != nil {
		t.Fatalf("rereading lot: %v", err)
	}
	if reread.MaxSpots != 3 {
		t.Fatalf("expected max_spots unchanged at 3, got %d", reread.MaxSpots)
	}
	counts, _ := store.CountByLot(ctx, lot.ID)
	if counts.Available+counts.Occupied != 3 {
		t.Fatalf("expected 3 spots unchanged, got %+v", counts)
	}
}

func TestUpdateLotMetadataOnly(t *testing.T) {
	store := inmem.NewStore()
	svc := newTestLotService(store)
	ctx := context.Background()

	lot, err := svc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 2,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}

	updated, err := svc.UpdateLot(ctx, lot.ID, domain.ParkingLotUpdateDTO{
		LocationName: strPtr("Harbor"),
		PricePerHour: floatPtr(12.5),
	})
	if err != nil {
		t.Fatalf("updating lot: %v", err)
	}
	if updated.LocationName != "Harbor" || updated.PricePerHour != 12.5 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if updated.Address != "1 Main St" || updated.MaxSpots != 2 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestDeleteLotOccupied(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 2,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	conf, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	if err := lotSvc.DeleteLot(ctx, lot.ID); !errors.Is(err, ErrLotOccupied) {
		t.Fatalf("expected ErrLotOccupied, got %v", err)
	}

	// After release the lot and its spots go away.
	if _, err := resSvc.Release(ctx, 7, conf.ReservationID); err != nil {
		t.Fatalf("releasing: %v", err)
	}
	if err := lotSvc.DeleteLot(ctx, lot.ID); err != nil {
		t.Fatalf("deleting empty lot: %v", err)
	}
	if _, err := store.FindLotByID(ctx, lot.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected lot gone, got %v", err)
	}
	counts, _ := store.CountAll(ctx)
	if counts.Available+counts.Occupied != 0 {
		t.Fatalf("expected no spots left, got %+v", counts)
	}
}

func TestDeleteSpot(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 2,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	conf, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	if err := lotSvc.DeleteSpot(ctx, conf.SpotID); !errors.Is(err, ErrSpotOccupied) {
		t.Fatalf("expected ErrSpotOccupied, got %v", err)
	}

	spots, _ := store.FindSpotsByLotID(ctx, lot.ID)
	var freeSpotID int
	for _, spot := range spots {
		if spot.Status == domain.SpotAvailable {
			freeSpotID = spot.ID
		}
	}
	if err := lotSvc.DeleteSpot(ctx, freeSpotID); err != nil {
		t.Fatalf("deleting free spot: %v", err)
	}

	reread, _ := store.FindLotByID(ctx, lot.ID)
	if reread.MaxSpots != 1 {
		t.Fatalf("expected max_spots 1 after spot delete, got %d", reread.MaxSpots)
	}
}

func TestCapacityChangesSurviveReservationHistory(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 3,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}

	// Build up closed-reservation history on every spot.
	for i := 0; i < 3; i++ {
		conf, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"})
		if err != nil {
			t.Fatalf("booking %d: %v", i, err)
		}
		if _, err := resSvc.Release(ctx, 7, conf.ReservationID); err != nil {
			t.Fatalf("releasing %d: %v", i, err)
		}
	}

	// Shrinking removes spots that past reservations point at.
	if _, err := lotSvc.UpdateLot(ctx, lot.ID, domain.ParkingLotUpdateDTO{MaxSpots: intPtr(1)}); err != nil {
		t.Fatalf("shrinking lot with history: %v", err)
	}

	spots, _ := store.FindSpotsByLotID(ctx, lot.ID)
	if len(spots) != 1 {
		t.Fatalf("expected 1 spot after shrink, got %d", len(spots))
	}
	if err := lotSvc.DeleteSpot(ctx, spots[0].ID); err != nil {
		t.Fatalf("deleting spot with history: %v", err)
	}
	if err := lotSvc.DeleteLot(ctx, lot.ID); err != nil {
		t.Fatalf("deleting lot with history: %v", err)
	}

	// The history itself outlives the capacity changes, detached from spots.
	rows, err := resSvc.Dashboard(ctx, 7)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.SpotID.Valid || row.LotID.Valid {
			t.Fatalf("expected detached history row, got %+v", row)
		}
		if row.Status != domain.ReservationReleased || !row.ParkingCost.Valid {
			t.Fatalf("history row lost its settlement: %+v", row)
		}
	}
}

func TestSummary(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	if _, err := store.Create(ctx, &domain.User{Email: "a@b.c", Role: domain.RoleUser}); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	if _, err := store.Create(ctx, &domain.User{Email: "admin@b.c", Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 4,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	if _, err := resSvc.Book(ctx, 1, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"}); err != nil {
		t.Fatalf("booking: %v", err)
	}

	summary, err := lotSvc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	overview := summary.Overview
	if overview.TotalLots != 1 || overview.TotalSpots != 4 {
		t.Fatalf("unexpected lot/spot totals: %+v", overview)
	}
	if overview.OccupiedSpots != 1 || overview.AvailableSpots != 3 {
		t.Fatalf("unexpected occupancy: %+v", overview)
	}
	if overview.TotalUsers != 1 {
		t.Fatalf("expected 1 non-admin user, got %d", overview.TotalUsers)
	}
	if overview.ActiveReservations != 1 {
		t.Fatalf("expected 1 active reservation, got %d", overview.ActiveReservations)
	}
	if len(summary.Lots) != 1 || summary.Lots[0].OccupancyRate != 25 {
		t.Fatalf("unexpected per-lot breakdown: %+v", summary.Lots)
	}
}

func TestAdminSearchFlagsUserReservations(t *testing.T) {
	store := inmem.NewStore()
	lotSvc := newTestLotService(store)
	resSvc := newTestReservationService(store)
	ctx := context.Background()

	lot, err := lotSvc.CreateLot(ctx, domain.ParkingLotDTO{
		LocationName: "Central", Address: "1 Main St", Pincode: "700001",
		PricePerHour: 10, MaxSpots: 2,
	})
	if err != nil {
		t.Fatalf("creating lot: %v", err)
	}
	conf, err := resSvc.Book(ctx, 7, domain.BookSpotDTO{LotID: lot.ID, VehicleNumber: "WB-01"})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	results, err := lotSvc.AdminSearch(ctx, "central", 7)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || len(results[0].Spots) != 2 {
		t.Fatalf("unexpected search result shape: %+v", results)
	}
	for _, spot := range results[0].Spots {
		if spot.ID == conf.SpotID {
			if !spot.ReservedByUser || spot.Status != domain.SpotOccupied {
				t.Fatalf("expected booked spot flagged for user, got %+v", spot)
			}
		} else if spot.ReservedByUser {
			t.Fatalf("free spot flagged as reserved: %+v", spot)
		}
	}

	// Another user sees the occupancy but no ownership flag.
	results, err = lotSvc.AdminSearch(ctx, "central", 8)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, spot := range results[0].Spots {
		if spot.ReservedByUser {
			t.Fatalf("spot flagged for wrong user: %+v", spot)
		}
	}
}
