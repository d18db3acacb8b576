// Package booking implements the conflict resolver: admission of reservation
// intervals under the per-station non-overlap invariant.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/models"
	"voltgrid/internal/observability"
	"voltgrid/internal/repository"
)

// StationGetter looks up stations for admission checks.
type StationGetter interface {
	GetByID(ctx context.Context, id string) (*models.Station, error)
}

// BookingStore persists bookings. Implementations must be safe for concurrent
// use; the resolver adds per-station mutual exclusion on top.
type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListActiveByStation(ctx context.Context, stationID string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// Requester is the already-resolved caller identity.
type Requester struct {
	UserID   int64
	Operator bool
}

// ReserveInput describes a proposed reservation window.
type ReserveInput struct {
	StationID string
	Requester Requester
	StartTime time.Time
	EndTime   time.Time
}

// Resolver admits or rejects reservation intervals. The read-active-then-insert
// sequence for one station runs inside that station's critical section, so two
// overlapping attempts cannot both pass the check.
type Resolver struct {
	stations StationGetter
	bookings BookingStore
	locks    *stationLocks
	logger   *zap.Logger
}

// NewResolver builds the resolver.
func NewResolver(stations StationGetter, bookings BookingStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		stations: stations,
		bookings: bookings,
		locks:    newStationLocks(),
		logger:   logger,
	}
}

// Reserve admits the interval or reports why it cannot be booked: invalid
// window, unknown station, non-operational station, or an overlap with an
// existing ACTIVE booking (carrying the colliding booking id).
func (r *Resolver) Reserve(ctx context.Context, input ReserveInput) (*models.Booking, error) {
	started := time.Now()
	defer func() { observability.ReserveLatency.Observe(time.Since(started).Seconds()) }()

	if err := models.ValidateInterval(input.StartTime, input.EndTime); err != nil {
		observability.ReservationsTotal.WithLabelValues(observability.ResultRejected).Inc()
		return nil, err
	}

	unlock := r.locks.lock(input.StationID)
	defer unlock()

	station, err := r.stations.GetByID(ctx, input.StationID)
	if errors.Is(err, repository.ErrNotFound) {
		observability.ReservationsTotal.WithLabelValues(observability.ResultRejected).Inc()
		return nil, apperr.NotFound("station", input.StationID)
	}
	if err != nil {
		return nil, fmt.Errorf("booking: loading station: %w", err)
	}
	if !station.Operational {
		observability.ReservationsTotal.WithLabelValues(observability.ResultRejected).Inc()
		return nil, apperr.PreconditionFailed("station %s is not operational", station.ID)
	}

	active, err := r.bookings.ListActiveByStation(ctx, input.StationID)
	if err != nil {
		return nil, fmt.Errorf("booking: listing active bookings: %w", err)
	}
	for i := range active {
		if active[i].Overlaps(input.StartTime, input.EndTime) {
			observability.ReservationsTotal.WithLabelValues(observability.ResultConflict).Inc()
			return nil, apperr.Conflict(active[i].ID,
				"interval overlaps booking %s [%s, %s)",
				active[i].ID,
				active[i].StartTime.UTC().Format(time.RFC3339),
				active[i].EndTime.UTC().Format(time.RFC3339),
			)
		}
	}

	booking := &models.Booking{
		ID:        uuid.NewString(),
		StationID: input.StationID,
		UserID:    input.Requester.UserID,
		StartTime: input.StartTime.UTC(),
		EndTime:   input.EndTime.UTC(),
		Status:    models.BookingStatusActive,
	}
	if err := r.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("booking: persisting booking: %w", err)
	}

	observability.ReservationsTotal.WithLabelValues(observability.ResultAccepted).Inc()
	r.logger.Info("booking admitted",
		zap.String("booking_id", booking.ID),
		zap.String("station_id", booking.StationID),
		zap.Int64("user_id", booking.UserID),
	)
	return booking, nil
}

// Cancel transitions an ACTIVE booking to CANCELLED. Cancelling an already
// CANCELLED booking is an idempotent no-op; cancelling a COMPLETED one fails.
// The requester must own the booking or be an operator. The returned bool
// reports whether this call performed the transition, so callers can keep
// side effects off the no-op path.
func (r *Resolver) Cancel(ctx context.Context, bookingID string, requester Requester) (bool, error) {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, apperr.NotFound("booking", bookingID)
	}
	if err != nil {
		return false, fmt.Errorf("booking: loading booking: %w", err)
	}
	if !requester.Operator && booking.UserID != requester.UserID {
		return false, apperr.PreconditionFailed("booking %s does not belong to requester", bookingID)
	}

	unlock := r.locks.lock(booking.StationID)
	defer unlock()

	// Re-read under the lock so the status seen is the one transitioned from.
	booking, err = r.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, apperr.NotFound("booking", bookingID)
	}
	if err != nil {
		return false, fmt.Errorf("booking: loading booking: %w", err)
	}

	switch booking.Status {
	case models.BookingStatusCancelled:
		return false, nil
	case models.BookingStatusCompleted:
		return false, apperr.PreconditionFailed("booking %s is already completed", bookingID)
	}

	if err := r.bookings.UpdateStatus(ctx, bookingID, models.BookingStatusCancelled); err != nil {
		return false, fmt.Errorf("booking: cancelling booking: %w", err)
	}
	r.logger.Info("booking cancelled", zap.String("booking_id", bookingID))
	return true, nil
}

// Complete transitions an ACTIVE booking to COMPLETED, driven by the charging
// session collaborator when usage ends.
func (r *Resolver) Complete(ctx context.Context, bookingID string) error {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("booking", bookingID)
	}
	if err != nil {
		return fmt.Errorf("booking: loading booking: %w", err)
	}

	unlock := r.locks.lock(booking.StationID)
	defer unlock()

	booking, err = r.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("booking", bookingID)
	}
	if err != nil {
		return fmt.Errorf("booking: loading booking: %w", err)
	}
	if booking.Status != models.BookingStatusActive {
		return apperr.PreconditionFailed("booking %s is %s, not ACTIVE", bookingID, booking.Status)
	}

	if err := r.bookings.UpdateStatus(ctx, bookingID, models.BookingStatusCompleted); err != nil {
		return fmt.Errorf("booking: completing booking: %w", err)
	}
	r.logger.Info("booking completed", zap.String("booking_id", bookingID))
	return nil
}

// Owner returns the booking for authorization or display purposes.
func (r *Resolver) Owner(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := r.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("booking: loading booking: %w", err)
	}
	return booking, nil
}
