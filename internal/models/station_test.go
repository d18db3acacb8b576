package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voltgrid/internal/apperr"
)

func validStation() Station {
	return Station{
		ID:            "st-1",
		Name:          "Marques de Pombal",
		City:          "Lisbon",
		Country:       "Portugal",
		Latitude:      38.7223,
		Longitude:     -9.1393,
		ConnectorType: "Type2",
		PowerKW:       22,
		PricePerKWh:   0.30,
		ChargerCount:  2,
		Status:        StationStatusAvailable,
	}
}

func TestStationValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Station)
		field  string
	}{
		{"valid", func(s *Station) {}, ""},
		{"blank name", func(s *Station) { s.Name = "  " }, "name"},
		{"blank connector", func(s *Station) { s.ConnectorType = "" }, "connector_type"},
		{"latitude too high", func(s *Station) { s.Latitude = 90.5 }, "latitude"},
		{"longitude too low", func(s *Station) { s.Longitude = -180.5 }, "longitude"},
		{"NaN latitude", func(s *Station) { s.Latitude = math.NaN() }, "latitude"},
		{"infinite longitude", func(s *Station) { s.Longitude = math.Inf(-1) }, "longitude"},
		{"zero power", func(s *Station) { s.PowerKW = 0 }, "power_kw"},
		{"negative price", func(s *Station) { s.PricePerKWh = -0.01 }, "price_per_kwh"},
		{"negative charger count", func(s *Station) { s.ChargerCount = -1 }, "charger_count"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			station := validStation()
			tc.mutate(&station)
			err := station.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindInvalidArgument, e.Kind)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestBookingOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	booking := Booking{StartTime: base, EndTime: base.Add(time.Hour)} // [10:00, 11:00)

	assert.True(t, booking.Overlaps(base.Add(30*time.Minute), base.Add(90*time.Minute)))
	assert.True(t, booking.Overlaps(base.Add(-30*time.Minute), base.Add(30*time.Minute)))
	assert.True(t, booking.Overlaps(base.Add(-time.Hour), base.Add(2*time.Hour)))

	// Half-open: touching endpoints do not overlap.
	assert.False(t, booking.Overlaps(base.Add(time.Hour), base.Add(2*time.Hour)))
	assert.False(t, booking.Overlaps(base.Add(-time.Hour), base))
}

func TestValidateInterval(t *testing.T) {
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateInterval(base, base.Add(time.Minute)))
	assert.Error(t, ValidateInterval(base, base))
	assert.Error(t, ValidateInterval(base.Add(time.Hour), base))
	assert.Error(t, ValidateInterval(time.Time{}, base))
}
