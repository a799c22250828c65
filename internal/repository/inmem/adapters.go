package inmem

import (
	"context"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"
)

// The views expose one Store as the four repository interfaces; every view
// shares the Store's lock, so WithinTx covers them all.

func (s *Store) Users() repository.UserRepository               { return userView{s} }
func (s *Store) Lots() repository.ParkingLotRepository          { return lotView{s} }
func (s *Store) Spots() repository.ParkingSpotRepository        { return spotView{s} }
func (s *Store) Reservations() repository.ReservationRepository { return reservationView{s} }

type userView struct{ s *Store }

func (v userView) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return v.s.Create(ctx, user)
}
func (v userView) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return v.s.FindByEmail(ctx, email)
}
func (v userView) FindByID(ctx context.Context, id int) (*domain.User, error) {
	return v.s.FindByID(ctx, id)
}
func (v userView) ListNonAdmin(ctx context.Context) ([]domain.User, error) {
	return v.s.ListNonAdmin(ctx)
}
func (v userView) CountNonAdmin(ctx context.Context) (int, error) {
	return v.s.CountNonAdmin(ctx)
}

type lotView struct{ s *Store }

func (v lotView) Create(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	return v.s.CreateLot(ctx, lot)
}
func (v lotView) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	return v.s.FindLotByID(ctx, id)
}
func (v lotView) FindBySpotID(ctx context.Context, spotID int) (*domain.ParkingLot, error) {
	return v.s.FindLotBySpotID(ctx, spotID)
}
func (v lotView) FindAll(ctx context.Context) ([]domain.ParkingLot, error) {
	return v.s.FindAllLots(ctx)
}
func (v lotView) FindByLocation(ctx context.Context, location string) ([]domain.ParkingLot, error) {
	return v.s.FindLotsByLocation(ctx, location)
}
func (v lotView) Update(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	return v.s.UpdateLot(ctx, lot)
}
func (v lotView) Delete(ctx context.Context, id int) error {
	return v.s.DeleteLot(ctx, id)
}
func (v lotView) Count(ctx context.Context) (int, error) {
	return v.s.CountLots(ctx)
}
func (v lotView) AdjustMaxSpots(ctx context.Context, id int, delta int) error {
	return v.s.AdjustMaxSpots(ctx, id, delta)
}

type spotView struct{ s *Store }

func (v spotView) ClaimFirstAvailable(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	return v.s.ClaimFirstAvailable(ctx, lotID)
}
func (v spotView) Release(ctx context.Context, id int) error {
	return v.s.Release(ctx, id)
}
func (v spotView) FindByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	return v.s.FindSpotByID(ctx, id)
}
func (v spotView) FindByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	return v.s.FindSpotsByLotID(ctx, lotID)
}
func (v spotView) CountByLot(ctx context.Context, lotID int) (domain.SpotCounts, error) {
	return v.s.CountByLot(ctx, lotID)
}
func (v spotView) CountAll(ctx context.Context) (domain.SpotCounts, error) {
	return v.s.CountAll(ctx)
}
func (v spotView) AddSpots(ctx context.Context, lotID int, n int) error {
	return v.s.AddSpots(ctx, lotID, n)
}
func (v spotView) RemoveAvailable(ctx context.Context, lotID int, n int) (int, error) {
	return v.s.RemoveAvailable(ctx, lotID, n)
}
func (v spotView) LockByLot(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	return v.s.LockByLot(ctx, lotID)
}
func (v spotView) DeleteAvailable(ctx context.Context, id int) error {
	return v.s.DeleteAvailable(ctx, id)
}
func (v spotView) DeleteByLot(ctx context.Context, lotID int) error {
	return v.s.DeleteByLot(ctx, lotID)
}

type reservationView struct{ s *Store }

func (v reservationView) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	return v.s.CreateReservation(ctx, res)
}
func (v reservationView) FindByID(ctx context.Context, id int) (*domain.Reservation, error) {
	return v.s.FindReservationByID(ctx, id)
}
func (v reservationView) FindActiveBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	return v.s.FindActiveBySpotID(ctx, spotID)
}
func (v reservationView) Close(ctx context.Context, id int, leavingTimestamp time.Time, cost float64) error {
	return v.s.Close(ctx, id, leavingTimestamp, cost)
}
func (v reservationView) ListByUser(ctx context.Context, userID int) ([]domain.ReservationSummary, error) {
	return v.s.ListByUser(ctx, userID)
}
func (v reservationView) CountActive(ctx context.Context) (int, error) {
	return v.s.CountActive(ctx)
}
