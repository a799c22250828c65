package domain

import "time"

type ParkingLot struct {
	ID           int       `json:"id"`
	LocationName string    `json:"location_name"`
	Address      string    `json:"address"`
	Pincode      string    `json:"pincode"`
	PricePerHour float64   `json:"price_per_hour"`
	MaxSpots     int       `json:"max_spots"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ParkingLotDTO struct {
	LocationName string  `json:"location_name" binding:"required"`
	Address      string  `json:"address" binding:"required"`
	Pincode      string  `json:"pincode" binding:"required"`
	PricePerHour float64 `json:"price_per_hour" binding:"required,gt=0"`
	MaxSpots     int     `json:"max_spots" binding:"gte=0"`
}

// ParkingLotUpdateDTO carries partial updates; nil fields are left untouched.
type ParkingLotUpdateDTO struct {
	LocationName *string  `json:"location_name"`
	Address      *string  `json:"address"`
	Pincode      *string  `json:"pincode"`
	PricePerHour *float64 `json:"price_per_hour" binding:"omitempty,gt=0"`
	MaxSpots     *int     `json:"max_spots" binding:"omitempty,gte=0"`
}

// LotAvailability is the user-facing search result: lot metadata plus the
// current number of available spots.
type LotAvailability struct {
	ParkingLot
	AvailableSpots int `json:"available_spots"`
}

// LotWithSpots is the admin search result: lot metadata plus the per-spot map.
type LotWithSpots struct {
	ParkingLot
	Spots []AdminSpot `json:"spots"`
}

type LotOccupancy struct {
	ID             int     `json:"id"`
	LocationName   string  `json:"location_name"`
	TotalSpots     int     `json:"total_spots"`
	OccupiedSpots  int     `json:"occupied_spots"`
	AvailableSpots int     `json:"available_spots"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

type SystemOverview struct {
	TotalLots          int `json:"total_lots"`
	TotalSpots         int `json:"total_spots"`
	OccupiedSpots      int `json:"occupied_spots"`
	AvailableSpots     int `json:"available_spots"`
	TotalUsers         int `json:"total_users"`
	ActiveReservations int `json:"active_reservations"`
}

type SystemSummary struct {
	Overview SystemOverview `json:"overview"`
	Lots     []LotOccupancy `json:"lots"`
}
