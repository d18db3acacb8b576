package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"voltgrid/internal/auth"
	"voltgrid/internal/booking"
	"voltgrid/internal/models"
)

// BookingsAPI is the slice of the bookings service the handlers need.
type BookingsAPI interface {
	Reserve(ctx context.Context, input booking.ReserveInput) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID string, requester booking.Requester) error
	StartCharging(ctx context.Context, bookingID string, requester booking.Requester) (*models.ChargingSession, error)
	Complete(ctx context.Context, bookingID string, energyKWh float64) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error)
}

// BookingsHandlers serves the reservation endpoints.
type BookingsHandlers struct {
	svc    BookingsAPI
	logger *zap.Logger
}

// NewBookingsHandlers returns handler.
func NewBookingsHandlers(svc BookingsAPI, logger *zap.Logger) *BookingsHandlers {
	return &BookingsHandlers{svc: svc, logger: logger}
}

type reserveRequest struct {
	StationID string    `json:"station_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// Reserve handles POST /bookings.
func (h *BookingsHandlers) Reserve(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StationID == "" {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	admitted, err := h.svc.Reserve(r.Context(), booking.ReserveInput{
		StationID: req.StationID,
		Requester: requesterFrom(identity),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admitted)
}

// Cancel handles POST /bookings/{id}/cancel.
func (h *BookingsHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	if err := h.svc.Cancel(r.Context(), r.PathValue("id"), requesterFrom(identity)); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Start handles POST /bookings/{id}/start: charging begins against the
// booking.
func (h *BookingsHandlers) Start(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	session, err := h.svc.StartCharging(r.Context(), r.PathValue("id"), requesterFrom(identity))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Complete handles POST /bookings/{id}/complete. The optional body carries the
// energy delivered over the session.
func (h *BookingsHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EnergyKWh float64 `json:"energy_kwh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EnergyKWh < 0 {
		writeError(w, http.StatusBadRequest, "energy_kwh must be non-negative")
		return
	}

	if err := h.svc.Complete(r.Context(), r.PathValue("id"), req.EnergyKWh); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ListMine handles GET /bookings/me.
func (h *BookingsHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "identity required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	bookings, err := h.svc.ListByUser(r.Context(), identity.UserID, limit)
	if err != nil {
		h.logger.Error("booking history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func requesterFrom(identity auth.Identity) booking.Requester {
	return booking.Requester{UserID: identity.UserID, Operator: identity.Operator()}
}
