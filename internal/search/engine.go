// Package search implements the station search engine: haversine radius
// filtering plus conjunctive attribute predicates, ordered by distance.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/models"
	"voltgrid/internal/observability"
)

// MaxRadiusKm bounds result-set cost per request.
const MaxRadiusKm = 100.0

// StationSource supplies the station snapshot to scan.
type StationSource interface {
	ListStations(ctx context.Context) ([]models.Station, error)
}

// Occupancy reports stations with a running charging session; used by the
// available-only filter.
type Occupancy interface {
	ActiveStations(ctx context.Context) (map[string]struct{}, error)
}

// Filters are conjunctive; zero values are no-ops.
type Filters struct {
	ConnectorType string
	MinPowerKW    *float64
	MaxPowerKW    *float64
	MinPrice      *float64
	MaxPrice      *float64
	Operational   *bool
	City          string // case-insensitive substring
	Country       string // case-insensitive substring
	Status        string
	AvailableOnly bool
}

// Query describes one search request.
type Query struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
	Filters  Filters
}

// Result is a station annotated with its distance from the search center.
type Result struct {
	models.Station
	DistanceKm float64 `json:"distance_km"`
}

// Engine filters and ranks stations by proximity. Pure read; no locking
// needed, a snapshot that goes stale mid-scan is acceptable.
type Engine struct {
	source    StationSource
	occupancy Occupancy
	logger    *zap.Logger
}

// NewEngine builds the engine. occupancy may be nil, which disables the
// available-only filter.
func NewEngine(source StationSource, occupancy Occupancy, logger *zap.Logger) *Engine {
	return &Engine{source: source, occupancy: occupancy, logger: logger}
}

// Search returns stations within the radius matching all filters, ordered by
// ascending distance with station id breaking ties. An empty result is not an
// error.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	if err := models.ValidateCoordinates(q.Lat, q.Lon); err != nil {
		return nil, err
	}
	if math.IsNaN(q.RadiusKm) || math.IsInf(q.RadiusKm, 0) || q.RadiusKm <= 0 || q.RadiusKm > MaxRadiusKm {
		return nil, apperr.InvalidArgument("radius_km", "must be within (0, %g], got %g", MaxRadiusKm, q.RadiusKm)
	}

	stations, err := e.source.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: listing stations: %w", err)
	}

	var occupied map[string]struct{}
	if q.Filters.AvailableOnly && e.occupancy != nil {
		occupied, err = e.occupancy.ActiveStations(ctx)
		if err != nil {
			return nil, fmt.Errorf("search: reading occupancy: %w", err)
		}
	}

	results := make([]Result, 0, len(stations))
	for _, s := range stations {
		if !matches(&s, q.Filters, occupied) {
			continue
		}
		dist := HaversineKm(q.Lat, q.Lon, s.Latitude, s.Longitude)
		if dist > q.RadiusKm {
			continue
		}
		results = append(results, Result{Station: s, DistanceKm: dist})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].DistanceKm != results[j].DistanceKm {
			return results[i].DistanceKm < results[j].DistanceKm
		}
		return results[i].ID < results[j].ID
	})

	observability.SearchesTotal.Inc()
	e.logger.Debug("station search completed",
		zap.Float64("lat", q.Lat),
		zap.Float64("lon", q.Lon),
		zap.Float64("radius_km", q.RadiusKm),
		zap.Int("results", len(results)),
	)
	return results, nil
}

func matches(s *models.Station, f Filters, occupied map[string]struct{}) bool {
	if f.ConnectorType != "" && s.ConnectorType != f.ConnectorType {
		return false
	}
	if f.MinPowerKW != nil && s.PowerKW < *f.MinPowerKW {
		return false
	}
	if f.MaxPowerKW != nil && s.PowerKW > *f.MaxPowerKW {
		return false
	}
	if f.MinPrice != nil && s.PricePerKWh < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && s.PricePerKWh > *f.MaxPrice {
		return false
	}
	if f.Operational != nil && s.Operational != *f.Operational {
		return false
	}
	if f.City != "" && !strings.Contains(strings.ToLower(s.City), strings.ToLower(f.City)) {
		return false
	}
	if f.Country != "" && !strings.Contains(strings.ToLower(s.Country), strings.ToLower(f.Country)) {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.AvailableOnly {
		if _, busy := occupied[s.ID]; busy {
			return false
		}
	}
	return true
}

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// HaversineKm computes the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
