package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/cache"
	"voltgrid/internal/models"
	"voltgrid/internal/repository"
	"voltgrid/internal/search"
	"voltgrid/internal/ws"
)

// StationsService manages the station catalogue and fronts the search engine.
type StationsService struct {
	stations *repository.StationRepository
	bookings *repository.BookingRepository
	cache    *cache.StationCache
	engine   *search.Engine
	hub      *ws.Hub
	logger   *zap.Logger
}

// NewStationsService builds service.
func NewStationsService(
	stations *repository.StationRepository,
	bookings *repository.BookingRepository,
	stationCache *cache.StationCache,
	engine *search.Engine,
	hub *ws.Hub,
	logger *zap.Logger,
) *StationsService {
	return &StationsService{
		stations: stations,
		bookings: bookings,
		cache:    stationCache,
		engine:   engine,
		hub:      hub,
		logger:   logger,
	}
}

// Register creates a station from manual registration. A missing id is
// assigned; a missing status defaults to Available.
func (s *StationsService) Register(ctx context.Context, station *models.Station) (*models.Station, error) {
	if station.ID == "" {
		station.ID = uuid.NewString()
	}
	if station.Status == "" {
		station.Status = models.StationStatusAvailable
	}
	if err := station.Validate(); err != nil {
		return nil, err
	}

	if err := s.stations.Upsert(ctx, station); err != nil {
		return nil, fmt.Errorf("stations: saving station: %w", err)
	}
	s.afterCatalogueChange(ctx, station)

	s.logger.Info("station registered",
		zap.String("station_id", station.ID),
		zap.String("city", station.City),
	)
	return station, nil
}

// Update replaces station attributes; the station must already exist.
func (s *StationsService) Update(ctx context.Context, station *models.Station) (*models.Station, error) {
	if station.ID == "" {
		return nil, apperr.InvalidArgument("id", "must be set")
	}
	if err := station.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, station.ID); err != nil {
		return nil, err
	}

	if err := s.stations.Upsert(ctx, station); err != nil {
		return nil, fmt.Errorf("stations: updating station: %w", err)
	}
	s.afterCatalogueChange(ctx, station)
	return station, nil
}

// SetStatus updates the operational flag and status tag only.
func (s *StationsService) SetStatus(ctx context.Context, id, status string, operational bool) (*models.Station, error) {
	station, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	station.Status = status
	station.Operational = operational

	if err := s.stations.Upsert(ctx, station); err != nil {
		return nil, fmt.Errorf("stations: updating station status: %w", err)
	}
	s.afterCatalogueChange(ctx, station)
	return station, nil
}

// Delete removes a station. Stations with outstanding ACTIVE bookings cannot
// be deleted; cancel or complete them first.
func (s *StationsService) Delete(ctx context.Context, id string) error {
	active, err := s.bookings.CountActiveByStation(ctx, id)
	if err != nil {
		return fmt.Errorf("stations: counting active bookings: %w", err)
	}
	if active > 0 {
		return apperr.PreconditionFailed("station %s has %d active bookings", id, active)
	}

	if err := s.stations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("station", id)
		}
		return fmt.Errorf("stations: deleting station: %w", err)
	}

	s.cache.Invalidate(ctx)
	if s.hub != nil {
		s.hub.Broadcast(ws.StationUpdate{
			StationID:   id,
			Status:      models.StationStatusOffline,
			Operational: false,
			At:          time.Now().UTC(),
		})
	}
	s.logger.Info("station deleted", zap.String("station_id", id))
	return nil
}

// Import bulk-loads stations from an administrative import. The whole batch is
// validated before anything is written.
func (s *StationsService) Import(ctx context.Context, stations []models.Station) (int, error) {
	for i := range stations {
		if stations[i].ID == "" {
			stations[i].ID = uuid.NewString()
		}
		if stations[i].Status == "" {
			stations[i].Status = models.StationStatusAvailable
		}
		if err := stations[i].Validate(); err != nil {
			return 0, err
		}
	}

	for i := range stations {
		if err := s.stations.Upsert(ctx, &stations[i]); err != nil {
			return i, fmt.Errorf("stations: importing station %s: %w", stations[i].ID, err)
		}
	}

	s.cache.Invalidate(ctx)
	s.logger.Info("stations imported", zap.Int("count", len(stations)))
	return len(stations), nil
}

// Get returns a single station.
func (s *StationsService) Get(ctx context.Context, id string) (*models.Station, error) {
	station, err := s.stations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("station", id)
	}
	if err != nil {
		return nil, fmt.Errorf("stations: loading station: %w", err)
	}
	return station, nil
}

// List returns the catalogue snapshot.
func (s *StationsService) List(ctx context.Context) ([]models.Station, error) {
	return s.cache.ListStations(ctx)
}

// Search delegates to the search engine.
func (s *StationsService) Search(ctx context.Context, q search.Query) ([]search.Result, error) {
	return s.engine.Search(ctx, q)
}

func (s *StationsService) afterCatalogueChange(ctx context.Context, station *models.Station) {
	s.cache.Invalidate(ctx)
	if s.hub != nil {
		s.hub.Broadcast(ws.StationUpdate{
			StationID:   station.ID,
			Status:      station.Status,
			Operational: station.Operational,
			At:          time.Now().UTC(),
		})
	}
}
