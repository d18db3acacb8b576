package models

import (
	"math"
	"strings"
	"time"

	"voltgrid/internal/apperr"
)

// Station status values reported to clients.
const (
	StationStatusAvailable = "Available"
	StationStatusInUse     = "In Use"
	StationStatusOffline   = "Offline"
)

// Station describes a charging location in the catalogue.
type Station struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Address       string    `db:"address" json:"address"`
	City          string    `db:"city" json:"city"`
	Country       string    `db:"country" json:"country"`
	Latitude      float64   `db:"latitude" json:"latitude"`
	Longitude     float64   `db:"longitude" json:"longitude"`
	ConnectorType string    `db:"connector_type" json:"connector_type"`
	PowerKW       float64   `db:"power_kw" json:"power_kw"`
	PricePerKWh   float64   `db:"price_per_kwh" json:"price_per_kwh"`
	Operational   bool      `db:"operational" json:"operational"`
	ChargerCount  int       `db:"charger_count" json:"charger_count"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ValidateCoordinates checks a latitude/longitude pair against valid ranges.
// NaN and infinities fail the check; range comparisons alone would let them
// through since every comparison with NaN is false.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return apperr.InvalidArgument("latitude", "must be within [-90, 90], got %g", lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return apperr.InvalidArgument("longitude", "must be within [-180, 180], got %g", lon)
	}
	return nil
}

// Validate enforces the station invariants: coordinates in range, non-blank
// name and connector type, positive rated power, non-negative price and
// charger count.
func (s *Station) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperr.InvalidArgument("name", "must not be blank")
	}
	if strings.TrimSpace(s.ConnectorType) == "" {
		return apperr.InvalidArgument("connector_type", "must not be blank")
	}
	if err := ValidateCoordinates(s.Latitude, s.Longitude); err != nil {
		return err
	}
	if s.PowerKW <= 0 {
		return apperr.InvalidArgument("power_kw", "must be positive, got %g", s.PowerKW)
	}
	if s.PricePerKWh < 0 {
		return apperr.InvalidArgument("price_per_kwh", "must not be negative, got %g", s.PricePerKWh)
	}
	if s.ChargerCount < 0 {
		return apperr.InvalidArgument("charger_count", "must not be negative, got %d", s.ChargerCount)
	}
	return nil
}
