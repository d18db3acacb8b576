package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/booking"
	"voltgrid/internal/cache"
	"voltgrid/internal/events"
	"voltgrid/internal/models"
	"voltgrid/internal/payments"
	"voltgrid/internal/repository"
)

// BookingsService orchestrates admission, payment holds, and event
// publication. Payment and event collaborators are best-effort: an admitted
// reservation stands even when the hold or the publish fails.
type BookingsService struct {
	resolver    *booking.Resolver
	bookings    *repository.BookingRepository
	stations    *repository.StationRepository
	sessions    *repository.SessionRepository
	paymentRepo *repository.PaymentRepository
	occupancy   *cache.OccupancyStore
	provider    payments.Provider
	producer    *events.Producer
	currency    string
	logger      *zap.Logger
}

// NewBookingsService builds service. provider and producer may be nil, which
// disables payment holds and event publication respectively.
func NewBookingsService(
	resolver *booking.Resolver,
	bookings *repository.BookingRepository,
	stations *repository.StationRepository,
	sessions *repository.SessionRepository,
	paymentRepo *repository.PaymentRepository,
	occupancy *cache.OccupancyStore,
	provider payments.Provider,
	producer *events.Producer,
	currency string,
	logger *zap.Logger,
) *BookingsService {
	if currency == "" {
		currency = "eur"
	}
	return &BookingsService{
		resolver:    resolver,
		bookings:    bookings,
		stations:    stations,
		sessions:    sessions,
		paymentRepo: paymentRepo,
		occupancy:   occupancy,
		provider:    provider,
		producer:    producer,
		currency:    currency,
		logger:      logger,
	}
}

// Reserve admits the interval through the conflict resolver, then places the
// payment hold and emits booking.created.
func (s *BookingsService) Reserve(ctx context.Context, input booking.ReserveInput) (*models.Booking, error) {
	admitted, err := s.resolver.Reserve(ctx, input)
	if err != nil {
		return nil, err
	}

	s.openPayment(ctx, admitted)
	s.producer.PublishBooking(ctx, events.TypeBookingCreated, admitted)
	return admitted, nil
}

// Cancel cancels the booking, releases any pending hold, and emits
// booking.cancelled. A retried cancel of an already-CANCELLED booking still
// succeeds but skips the side effects, so no duplicate events are emitted.
func (s *BookingsService) Cancel(ctx context.Context, bookingID string, requester booking.Requester) error {
	cancelled, err := s.resolver.Cancel(ctx, bookingID, requester)
	if err != nil {
		return err
	}
	if !cancelled {
		return nil
	}

	s.closeSession(ctx, bookingID, 0)
	s.settlePayment(ctx, bookingID, false)

	if b, err := s.resolver.Owner(ctx, bookingID); err == nil {
		s.producer.PublishBooking(ctx, events.TypeBookingCancelled, b)
	}
	return nil
}

// StartCharging records the start of usage against an ACTIVE booking and marks
// the station occupied for availability search.
func (s *BookingsService) StartCharging(ctx context.Context, bookingID string, requester booking.Requester) (*models.ChargingSession, error) {
	b, err := s.resolver.Owner(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !requester.Operator && b.UserID != requester.UserID {
		return nil, apperr.PreconditionFailed("booking %s does not belong to requester", bookingID)
	}
	if b.Status != models.BookingStatusActive {
		return nil, apperr.PreconditionFailed("booking %s is %s, not ACTIVE", bookingID, b.Status)
	}

	session := &models.ChargingSession{
		BookingID:     b.ID,
		StationID:     b.StationID,
		UserID:        b.UserID,
		Status:        models.SessionStatusActive,
		StartTime:     time.Now().UTC(),
		TransactionID: uuid.NewString(),
	}
	if _, err := s.sessions.Start(ctx, session); err != nil {
		return nil, err
	}

	if err := s.occupancy.MarkActive(ctx, b.StationID); err != nil {
		s.logger.Warn("failed to mark station occupied",
			zap.String("station_id", b.StationID), zap.Error(err))
	}
	s.logger.Info("charging session started",
		zap.String("booking_id", b.ID), zap.String("station_id", b.StationID))
	return session, nil
}

// Complete finishes the booking when charging ends: the session is closed with
// the delivered energy, the hold is captured, and booking.completed is emitted.
func (s *BookingsService) Complete(ctx context.Context, bookingID string, energyKWh float64) error {
	if err := s.resolver.Complete(ctx, bookingID); err != nil {
		return err
	}

	s.closeSession(ctx, bookingID, energyKWh)
	s.settlePayment(ctx, bookingID, true)

	if completed, err := s.resolver.Owner(ctx, bookingID); err == nil {
		s.producer.PublishBooking(ctx, events.TypeBookingCompleted, completed)
	}
	return nil
}

// closeSession finalizes the booking's running session, if one was started, and
// frees the occupancy slot.
func (s *BookingsService) closeSession(ctx context.Context, bookingID string, energyKWh float64) {
	err := s.sessions.CompleteByBooking(ctx, bookingID, time.Now().UTC(), energyKWh)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("failed to close charging session",
			zap.String("booking_id", bookingID), zap.Error(err))
		return
	}

	if b, err := s.resolver.Owner(ctx, bookingID); err == nil {
		if err := s.occupancy.ClearActive(ctx, b.StationID); err != nil {
			s.logger.Warn("failed to clear station occupancy",
				zap.String("station_id", b.StationID), zap.Error(err))
		}
	}
}

// ListByUser returns the caller's booking history.
func (s *BookingsService) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	return s.bookings.ListByUser(ctx, userID, limit)
}

// openPayment records a PENDING payment for the booking and tries to place the
// provider hold. Failures are logged; the reservation stands.
func (s *BookingsService) openPayment(ctx context.Context, b *models.Booking) {
	if s.paymentRepo == nil {
		return
	}

	station, err := s.stations.GetByID(ctx, b.StationID)
	if err != nil {
		s.logger.Warn("skipping payment, station lookup failed",
			zap.String("booking_id", b.ID), zap.Error(err))
		return
	}

	payment := &models.Payment{
		ID:          uuid.NewString(),
		BookingID:   b.ID,
		AmountCents: estimateAmountCents(station, b.StartTime, b.EndTime),
		Currency:    s.currency,
		Status:      models.PaymentStatusPending,
	}

	if s.provider != nil {
		ref, err := s.provider.Hold(ctx, payment.AmountCents, payment.Currency)
		if err != nil {
			s.logger.Warn("payment hold failed",
				zap.String("booking_id", b.ID), zap.Error(err))
		} else {
			payment.ProviderRef = ref
		}
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		s.logger.Warn("failed to record payment",
			zap.String("booking_id", b.ID), zap.Error(err))
	}
}

// settlePayment captures (capture=true) or releases the booking's pending
// hold.
func (s *BookingsService) settlePayment(ctx context.Context, bookingID string, capture bool) {
	if s.paymentRepo == nil {
		return
	}

	payment, err := s.paymentRepo.GetByBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("payment lookup failed", zap.String("booking_id", bookingID), zap.Error(err))
		return
	}
	if payment.Status != models.PaymentStatusPending {
		return
	}

	status := models.PaymentStatusFailed
	if payment.ProviderRef != "" && s.provider != nil {
		if capture {
			err = s.provider.Capture(ctx, payment.ProviderRef)
			if err == nil {
				status = models.PaymentStatusSucceeded
			}
		} else {
			err = s.provider.Release(ctx, payment.ProviderRef)
		}
		if err != nil {
			s.logger.Warn("payment settlement failed",
				zap.String("booking_id", bookingID),
				zap.Bool("capture", capture),
				zap.Error(err),
			)
			return
		}
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, payment.ProviderRef); err != nil {
		s.logger.Warn("failed to update payment status",
			zap.String("booking_id", bookingID), zap.Error(err))
	}
}

// estimateAmountCents prices the hold at the station's flat rate for a full
// draw over the booked window.
func estimateAmountCents(station *models.Station, start, end time.Time) int64 {
	hours := end.Sub(start).Hours()
	amount := station.PowerKW * hours * station.PricePerKWh * 100
	return int64(math.Round(amount))
}
