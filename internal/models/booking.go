package models

import (
	"time"

	"voltgrid/internal/apperr"
)

// Booking status values. ACTIVE bookings occupy their station for their
// interval; CANCELLED and COMPLETED are terminal.
const (
	BookingStatusActive    = "ACTIVE"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

// Booking reserves a station for a half-open [start, end) interval. Start and
// end never change after creation; a reschedule is cancel plus recreate.
type Booking struct {
	ID        string    `db:"id" json:"id"`
	StationID string    `db:"station_id" json:"station_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ValidateInterval checks that end is strictly after start.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() {
		return apperr.InvalidArgument("start_time", "must be set")
	}
	if end.IsZero() {
		return apperr.InvalidArgument("end_time", "must be set")
	}
	if !end.After(start) {
		return apperr.InvalidArgument("end_time", "must be after start_time")
	}
	return nil
}

// Overlaps reports whether the booking's [start, end) interval shares at least
// one instant with [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && start.Before(b.EndTime)
}
