package models

import "time"

// Charging session status values.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// ChargingSession records actual usage against a booking. The reservation core
// reads sessions only as occupancy context; their lifecycle is driven by the
// charging collaborator.
type ChargingSession struct {
	ID            int64      `db:"id" json:"id"`
	BookingID     string     `db:"booking_id" json:"booking_id"`
	StationID     string     `db:"station_id" json:"station_id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Status        string     `db:"status" json:"status"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       *time.Time `db:"end_time" json:"end_time,omitempty"`
	EnergyKWh     float64    `db:"energy_kwh" json:"energy_kwh"`
	TransactionID string     `db:"transaction_id" json:"transaction_id"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
