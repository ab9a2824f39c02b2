package model

import (
	"time"

	apperrors "drivebay/pkg/errors"
)

// Interval is an inclusive reservation date range. Both bounds are day
// boundaries: a booking from Jan 1 to Jan 2 occupies both days.
type Interval struct {
	Start time.Time `json:"pickup_date" bson:"pickup_date" validate:"required"`
	End   time.Time `json:"return_date" bson:"return_date" validate:"required"`
}

// Overlaps reports whether two intervals share at least one day:
// a.Start <= b.End && b.Start <= a.End.
func (a Interval) Overlaps(b Interval) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// DurationDays is the billable day count: the ceiling of the elapsed time
// between the bounds in whole days, never less than 1. A partial day bills
// as a full day.
func (a Interval) DurationDays() int64 {
	elapsed := a.End.Sub(a.Start)
	if elapsed <= 0 {
		return 1
	}
	days := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// Validate rejects unset bounds and ranges whose start is not strictly
// before the end.
func (a Interval) Validate() error {
	if a.Start.IsZero() || a.End.IsZero() {
		return apperrors.InvalidInterval("pickup_date and return_date are required")
	}
	if !a.Start.Before(a.End) {
		return apperrors.InvalidInterval("pickup_date must be before return_date")
	}
	return nil
}
