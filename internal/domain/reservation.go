package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "Active"
	ReservationReleased ReservationStatus = "Released"
)

// Reservation records one user's occupancy of one spot over one contiguous
// interval. LeavingTimestamp and ParkingCost stay null while the reservation
// is open and are set exactly once when it is closed. SpotID is always set
// while the reservation is open; it goes null when the spot is later removed
// from the registry, since history outlives capacity changes.
type Reservation struct {
	ID               int        `json:"id"`
	SpotID           null.Int   `json:"spot_id"`
	UserID           int        `json:"user_id"`
	VehicleNumber    string     `json:"vehicle_number"`
	ParkingTimestamp time.Time  `json:"parking_timestamp"`
	LeavingTimestamp null.Time  `json:"leaving_timestamp"`
	ParkingCost      null.Float `json:"parking_cost"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (r *Reservation) Status() ReservationStatus {
	if r.LeavingTimestamp.Valid {
		return ReservationReleased
	}
	return ReservationActive
}

type BookSpotDTO struct {
	LotID         int    `json:"lot_id" binding:"required"`
	VehicleNumber string `json:"vehicle_number" binding:"required"`
}

type BookingConfirmation struct {
	ReservationID int `json:"reservation_id"`
	SpotID        int `json:"spot_id"`
}

// ReservationSummary is one dashboard row; LotID is resolved through the
// owning spot by the repository query, not by an object backref. Both ids go
// null on history rows whose spot has since been removed.
type ReservationSummary struct {
	ReservationID    int               `json:"reservation_id"`
	SpotID           null.Int          `json:"spot_id"`
	LotID            null.Int          `json:"lot_id"`
	VehicleNumber    string            `json:"vehicle_number"`
	ParkingTimestamp time.Time         `json:"parking_timestamp"`
	LeavingTimestamp null.Time         `json:"leaving_timestamp"`
	ParkingCost      null.Float        `json:"parking_cost"`
	Status           ReservationStatus `json:"status"`
}

// OccupancyReport is the admin view of an occupied spot with the running
// live-estimate cost.
type OccupancyReport struct {
	UserID           int       `json:"user_id"`
	VehicleNumber    string    `json:"vehicle_number"`
	ParkingTimestamp time.Time `json:"parking_timestamp"`
	ParkingCost      float64   `json:"parking_cost"`
}
