// Package billing holds the cost policy for parking reservations. Two
// distinct formulas exist on purpose: EstimateCost is the running figure
// shown while a spot is still occupied, FinalCost is the settlement charged
// when the reservation is released. They do not agree for partial hours and
// must not be unified without a product decision.
package billing

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidDuration = errors.New("end time is before start time")

// EstimateCost returns the live in-progress charge for a still-occupied
// spot: any elapsed time within the first hour bills as one full hour, and
// longer stays round up to the next whole hour.
func EstimateCost(start, end time.Time, hourlyRate float64) (float64, error) {
	if end.Before(start) {
		return 0, ErrInvalidDuration
	}
	hours := end.Sub(start).Hours()
	if hours <= 1 {
		return hourlyRate, nil
	}
	return hourlyRate * math.Ceil(hours), nil
}

// FinalCost returns the settlement charge at release: pro-rated over the
// exact duration and rounded to two decimals. A zero-length stay costs zero.
func FinalCost(start, end time.Time, hourlyRate float64) (float64, error) {
	if end.Before(start) {
		return 0, ErrInvalidDuration
	}
	hours := end.Sub(start).Hours()
	return math.Round(hourlyRate*hours*100) / 100, nil
}
