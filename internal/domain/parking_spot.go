package domain

import "time"

type SpotStatus string

const (
	SpotAvailable SpotStatus = "available"
	SpotOccupied  SpotStatus = "occupied"
)

type ParkingSpot struct {
	ID        int        `json:"id"`
	LotID     int        `json:"lot_id"`
	Status    SpotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SpotCounts struct {
	Available int `json:"available"`
	Occupied  int `json:"occupied"`
}

// AdminSpot decorates a spot with whether the searching user holds its open
// reservation.
type AdminSpot struct {
	ParkingSpot
	ReservedByUser bool `json:"reserved_by_user"`
}
