package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"voltgrid/internal/models"
	"voltgrid/internal/search"
)

// StationsAPI is the slice of the stations service the handlers need.
type StationsAPI interface {
	Register(ctx context.Context, station *models.Station) (*models.Station, error)
	Update(ctx context.Context, station *models.Station) (*models.Station, error)
	SetStatus(ctx context.Context, id, status string, operational bool) (*models.Station, error)
	Delete(ctx context.Context, id string) error
	Import(ctx context.Context, stations []models.Station) (int, error)
	Get(ctx context.Context, id string) (*models.Station, error)
	List(ctx context.Context) ([]models.Station, error)
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// StationsHandlers serves the station catalogue endpoints.
type StationsHandlers struct {
	svc    StationsAPI
	logger *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(svc StationsAPI, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{svc: svc, logger: logger}
}

// List handles GET /stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("station list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": stations})
}

// Get handles GET /stations/{id}.
func (h *StationsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	station, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// Search handles GET /stations/search.
func (h *StationsHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := parseSearchQuery(w, r)
	if !ok {
		return
	}

	results, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stations": results})
}

// Create handles POST /stations.
func (h *StationsHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var station models.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Register(r.Context(), &station)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /stations/{id}.
func (h *StationsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var station models.Station
	if err := json.NewDecoder(r.Body).Decode(&station); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	station.ID = r.PathValue("id")

	updated, err := h.svc.Update(r.Context(), &station)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SetStatus handles PATCH /stations/{id}/status.
func (h *StationsHandlers) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status      string `json:"status"`
		Operational bool   `json:"operational"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != models.StationStatusAvailable &&
		req.Status != models.StationStatusInUse &&
		req.Status != models.StationStatusOffline {
		writeError(w, http.StatusBadRequest, "status must be Available, In Use or Offline")
		return
	}

	updated, err := h.svc.SetStatus(r.Context(), r.PathValue("id"), req.Status, req.Operational)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /stations/{id}.
func (h *StationsHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Import handles POST /stations/import.
func (h *StationsHandlers) Import(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Stations []models.Station `json:"stations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(payload.Stations) == 0 {
		writeError(w, http.StatusBadRequest, "stations must not be empty")
		return
	}

	count, err := h.svc.Import(r.Context(), payload.Stations)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}

func parseSearchQuery(w http.ResponseWriter, r *http.Request) (search.Query, bool) {
	var q search.Query
	var err error

	params := r.URL.Query()
	if q.Lat, err = strconv.ParseFloat(params.Get("lat"), 64); err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return q, false
	}
	if q.Lon, err = strconv.ParseFloat(params.Get("lon"), 64); err != nil {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return q, false
	}
	if q.RadiusKm, err = strconv.ParseFloat(params.Get("radius_km"), 64); err != nil {
		writeError(w, http.StatusBadRequest, "radius_km must be a number")
		return q, false
	}

	q.Filters.ConnectorType = params.Get("connector_type")
	q.Filters.City = params.Get("city")
	q.Filters.Country = params.Get("country")
	q.Filters.Status = params.Get("status")

	if q.Filters.MinPowerKW, err = optionalFloat(params.Get("min_power_kw")); err != nil {
		writeError(w, http.StatusBadRequest, "min_power_kw must be a number")
		return q, false
	}
	if q.Filters.MaxPowerKW, err = optionalFloat(params.Get("max_power_kw")); err != nil {
		writeError(w, http.StatusBadRequest, "max_power_kw must be a number")
		return q, false
	}
	if q.Filters.MinPrice, err = optionalFloat(params.Get("min_price")); err != nil {
		writeError(w, http.StatusBadRequest, "min_price must be a number")
		return q, false
	}
	if q.Filters.MaxPrice, err = optionalFloat(params.Get("max_price")); err != nil {
		writeError(w, http.StatusBadRequest, "max_price must be a number")
		return q, false
	}

	if raw := params.Get("operational"); raw != "" {
		operational, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "operational must be a boolean")
			return q, false
		}
		q.Filters.Operational = &operational
	}
	if raw := params.Get("available_only"); raw != "" {
		if q.Filters.AvailableOnly, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "available_only must be a boolean")
			return q, false
		}
	}

	return q, true
}

func optionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
