// Package inmem is a mutex-guarded, map-backed implementation of the
// repository interfaces. It backs the service tests and the no-database dev
// mode; WithinTx serializes each unit of work behind one lock, which gives
// the same isolation the PostgreSQL row locks provide.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/padmajamazumder/parkit/internal/domain"
	"github.com/padmajamazumder/parkit/internal/repository"

	"gopkg.in/guregu/null.v4"
)

type txKey struct{}

type Store struct {
	mu sync.Mutex

	users        map[int]*domain.User
	lots         map[int]*domain.ParkingLot
	spots        map[int]*domain.ParkingSpot
	reservations map[int]*domain.Reservation

	nextUserID        int
	nextLotID         int
	nextSpotID        int
	nextReservationID int
}

func NewStore() *Store {
	return &Store{
		users:             make(map[int]*domain.User),
		lots:              make(map[int]*domain.ParkingLot),
		spots:             make(map[int]*domain.ParkingSpot),
		reservations:      make(map[int]*domain.Reservation),
		nextUserID:        1,
		nextLotID:         1,
		nextSpotID:        1,
		nextReservationID: 1,
	}
}

// lock takes the store mutex unless ctx already runs inside WithinTx, in
// which case the lock is held for the whole unit of work.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, struct{}{}))
}

// --- UserRepository ---

func (s *Store) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, repository.ErrDuplicateEntry
		}
	}
	now := time.Now().UTC()
	cp := *user
	cp.ID = s.nextUserID
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.nextUserID++
	s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	defer s.lock(ctx)()
	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindByID(ctx context.Context, id int) (*domain.User, error) {
	defer s.lock(ctx)()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *Store) ListNonAdmin(ctx context.Context) ([]domain.User, error) {
	defer s.lock(ctx)()
	var users []domain.User
	for _, u := range s.users {
		if u.Role != domain.RoleAdmin {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) CountNonAdmin(ctx context.Context) (int, error) {
	defer s.lock(ctx)()
	count := 0
	for _, u := range s.users {
		if u.Role != domain.RoleAdmin {
			count++
		}
	}
	return count, nil
}

// --- ParkingLotRepository ---

func (s *Store) CreateLot(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	defer s.lock(ctx)()
	now := time.Now().UTC()
	cp := *lot
	cp.ID = s.nextLotID
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.nextLotID++
	s.lots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) FindLotByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	defer s.lock(ctx)()
	lot, ok := s.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *lot
	return &out, nil
}

func (s *Store) FindLotBySpotID(ctx context.Context, spotID int) (*domain.ParkingLot, error) {
	defer s.lock(ctx)()
	spot, ok := s.spots[spotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	lot, ok := s.lots[spot.LotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *lot
	return &out, nil
}

func (s *Store) FindAllLots(ctx context.Context) ([]domain.ParkingLot, error) {
	return s.FindLotsByLocation(ctx, "")
}

func (s *Store) FindLotsByLocation(ctx context.Context, location string) ([]domain.ParkingLot, error) {
	defer s.lock(ctx)()
	var lots []domain.ParkingLot
	needle := strings.ToLower(location)
	for _, lot := range s.lots {
		if needle == "" || strings.Contains(strings.ToLower(lot.LocationName), needle) {
			lots = append(lots, *lot)
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].LocationName < lots[j].LocationName })
	return lots, nil
}

func (s *Store) UpdateLot(ctx context.Context, lot *domain.ParkingLot) (*domain.ParkingLot, error) {
	defer s.lock(ctx)()
	existing, ok := s.lots[lot.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *lot
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now().UTC()
	s.lots[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) DeleteLot(ctx context.Context, id int) error {
	defer s.lock(ctx)()
	if _, ok := s.lots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.lots, id)
	return nil
}

func (s *Store) CountLots(ctx context.Context) (int, error) {
	defer s.lock(ctx)()
	return len(s.lots), nil
}

func (s *Store) AdjustMaxSpots(ctx context.Context, id int, delta int) error {
	defer s.lock(ctx)()
	lot, ok := s.lots[id]
	if !ok {
		return repository.ErrNotFound
	}
	lot.MaxSpots += delta
	lot.UpdatedAt = time.Now().UTC()
	return nil
}

// --- ParkingSpotRepository ---

func (s *Store) ClaimFirstAvailable(ctx context.Context, lotID int) (*domain.ParkingSpot, error) {
	defer s.lock(ctx)()
	var candidate *domain.ParkingSpot
	for _, spot := range s.spots {
		if spot.LotID != lotID || spot.Status != domain.SpotAvailable {
			continue
		}
		if candidate == nil || spot.ID < candidate.ID {
			candidate = spot
		}
	}
	if candidate == nil {
		return nil, repository.ErrNoSpotAvailable
	}
	candidate.Status = domain.SpotOccupied
	candidate.UpdatedAt = time.Now().UTC()
	out := *candidate
	return &out, nil
}

func (s *Store) Release(ctx context.Context, id int) error {
	defer s.lock(ctx)()
	spot, ok := s.spots[id]
	if !ok || spot.Status != domain.SpotOccupied {
		return repository.ErrNotFound
	}
	spot.Status = domain.SpotAvailable
	spot.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) FindSpotByID(ctx context.Context, id int) (*domain.ParkingSpot, error) {
	defer s.lock(ctx)()
	spot, ok := s.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *spot
	return &out, nil
}

func (s *Store) FindSpotsByLotID(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	defer s.lock(ctx)()
	return s.spotsOfLot(lotID), nil
}

func (s *Store) spotsOfLot(lotID int) []domain.ParkingSpot {
	var spots []domain.ParkingSpot
	for _, spot := range s.spots {
		if spot.LotID == lotID {
			spots = append(spots, *spot)
		}
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].ID < spots[j].ID })
	return spots
}

func (s *Store) CountByLot(ctx context.Context, lotID int) (domain.SpotCounts, error) {
	defer s.lock(ctx)()
	var counts domain.SpotCounts
	for _, spot := range s.spots {
		if spot.LotID != lotID {
			continue
		}
		if spot.Status == domain.SpotAvailable {
			counts.Available++
		} else {
			counts.Occupied++
		}
	}
	return counts, nil
}

func (s *Store) CountAll(ctx context.Context) (domain.SpotCounts, error) {
	defer s.lock(ctx)()
	var counts domain.SpotCounts
	for _, spot := range s.spots {
		if spot.Status == domain.SpotAvailable {
			counts.Available++
		} else {
			counts.Occupied++
		}
	}
	return counts, nil
}

func (s *Store) AddSpots(ctx context.Context, lotID int, n int) error {
	defer s.lock(ctx)()
	now := time.Now().UTC()
	for i := 0; i < n; i++ {
		spot := &domain.ParkingSpot{
			ID:        s.nextSpotID,
			LotID:     lotID,
			Status:    domain.SpotAvailable,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.nextSpotID++
		s.spots[spot.ID] = spot
	}
	return nil
}

// RemoveAvailable deletes nothing when fewer than n spots are free, so a
// failed shrink leaves the pool untouched, matching the all-or-nothing
// behavior a rolled-back transaction gives the SQL implementation.
func (s *Store) RemoveAvailable(ctx context.Context, lotID int, n int) (int, error) {
	defer s.lock(ctx)()
	if n <= 0 {
		return 0, nil
	}
	var free []int
	for _, spot := range s.spots {
		if spot.LotID == lotID && spot.Status == domain.SpotAvailable {
			free = append(free, spot.ID)
		}
	}
	if len(free) < n {
		return len(free), nil
	}
	sort.Sort(sort.Reverse(sort.IntSlice(free)))
	for _, id := range free[:n] {
		s.deleteSpot(id)
	}
	return n, nil
}

// deleteSpot removes the spot and detaches it from reservation history, the
// way the schema's ON DELETE SET NULL does.
func (s *Store) deleteSpot(id int) {
	delete(s.spots, id)
	for _, res := range s.reservations {
		if res.SpotID.Valid && int(res.SpotID.Int64) == id {
			res.SpotID = null.Int{}
		}
	}
}

func (s *Store) LockByLot(ctx context.Context, lotID int) ([]domain.ParkingSpot, error) {
	defer s.lock(ctx)()
	return s.spotsOfLot(lotID), nil
}

func (s *Store) DeleteAvailable(ctx context.Context, id int) error {
	defer s.lock(ctx)()
	spot, ok := s.spots[id]
	if !ok || spot.Status != domain.SpotAvailable {
		return repository.ErrNotFound
	}
	s.deleteSpot(id)
	return nil
}

func (s *Store) DeleteByLot(ctx context.Context, lotID int) error {
	defer s.lock(ctx)()
	for id, spot := range s.spots {
		if spot.LotID == lotID {
			s.deleteSpot(id)
		}
	}
	return nil
}

// --- ReservationRepository ---

func (s *Store) CreateReservation(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	defer s.lock(ctx)()
	for _, existing := range s.reservations {
		if existing.SpotID.Valid && existing.SpotID == res.SpotID && !existing.LeavingTimestamp.Valid {
			return nil, repository.ErrSpotAlreadyReserved
		}
	}
	now := time.Now().UTC()
	cp := *res
	cp.ID = s.nextReservationID
	cp.CreatedAt, cp.UpdatedAt = now, now
	s.nextReservationID++
	s.reservations[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (s *Store) FindReservationByID(ctx context.Context, id int) (*domain.Reservation, error) {
	defer s.lock(ctx)()
	res, ok := s.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *res
	return &out, nil
}

func (s *Store) FindActiveBySpotID(ctx context.Context, spotID int) (*domain.Reservation, error) {
	defer s.lock(ctx)()
	for _, res := range s.reservations {
		if res.SpotID.Valid && int(res.SpotID.Int64) == spotID && !res.LeavingTimestamp.Valid {
			out := *res
			return &out, nil
		}
	}
	return nil, repository.ErrNoActiveReservation
}

func (s *Store) Close(ctx context.Context, id int, leavingTimestamp time.Time, cost float64) error {
	defer s.lock(ctx)()
	res, ok := s.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if res.LeavingTimestamp.Valid {
		return repository.ErrReservationClosed
	}
	res.LeavingTimestamp = null.TimeFrom(leavingTimestamp)
	res.ParkingCost = null.FloatFrom(cost)
	res.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID int) ([]domain.ReservationSummary, error) {
	defer s.lock(ctx)()
	var summaries []domain.ReservationSummary
	for _, res := range s.reservations {
		if res.UserID != userID {
			continue
		}
		var lotID null.Int
		if res.SpotID.Valid {
			if spot, ok := s.spots[int(res.SpotID.Int64)]; ok {
				lotID = null.IntFrom(int64(spot.LotID))
			}
		}
		summaries = append(summaries, domain.ReservationSummary{
			ReservationID:    res.ID,
			SpotID:           res.SpotID,
			LotID:            lotID,
			VehicleNumber:    res.VehicleNumber,
			ParkingTimestamp: res.ParkingTimestamp,
			LeavingTimestamp: res.LeavingTimestamp,
			ParkingCost:      res.ParkingCost,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ParkingTimestamp.Equal(summaries[j].ParkingTimestamp) {
			return summaries[i].ReservationID > summaries[j].ReservationID
		}
		return summaries[i].ParkingTimestamp.After(summaries[j].ParkingTimestamp)
	})
	return summaries, nil
}

func (s *Store) CountActive(ctx context.Context) (int, error) {
	defer s.lock(ctx)()
	count := 0
	for _, res := range s.reservations {
		if !res.LeavingTimestamp.Valid {
			count++
		}
	}
	return count, nil
}
