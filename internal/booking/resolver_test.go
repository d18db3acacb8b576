package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"voltgrid/internal/apperr"
	"voltgrid/internal/models"
	"voltgrid/internal/repository"
)

type fakeStations struct {
	mu       sync.Mutex
	stations map[string]models.Station
}

func (f *fakeStations) GetByID(ctx context.Context, id string) (*models.Station, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{bookings: make(map[string]models.Booking)}
}

func (f *fakeBookings) Create(ctx context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[booking.ID] = *booking
	return nil
}

func (f *fakeBookings) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookings) ListActiveByStation(ctx context.Context, stationID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []models.Booking
	for _, b := range f.bookings {
		if b.StationID == stationID && b.Status == models.BookingStatusActive {
			active = append(active, b)
		}
	}
	return active, nil
}

func (f *fakeBookings) UpdateStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	f.bookings[id] = b
	return nil
}

func newTestResolver(stations ...models.Station) (*Resolver, *fakeBookings) {
	stationMap := make(map[string]models.Station, len(stations))
	for _, s := range stations {
		stationMap[s.ID] = s
	}
	bookings := newFakeBookings()
	resolver := NewResolver(&fakeStations{stations: stationMap}, bookings, zap.NewNop())
	return resolver, bookings
}

func operationalStation(id string) models.Station {
	return models.Station{
		ID:            id,
		Name:          "Station " + id,
		ConnectorType: "Type2",
		Latitude:      38.7223,
		Longitude:     -9.1393,
		PowerKW:       22,
		Operational:   true,
		Status:        models.StationStatusAvailable,
	}
}

func window(startHour, endHour int) (time.Time, time.Time) {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(startHour) * time.Hour), day.Add(time.Duration(endHour) * time.Hour)
}

func reserveAt(t *testing.T, r *Resolver, stationID string, startHour, endHour int) *models.Booking {
	t.Helper()
	start, end := window(startHour, endHour)
	b, err := r.Reserve(context.Background(), ReserveInput{
		StationID: stationID,
		Requester: Requester{UserID: 1},
		StartTime: start,
		EndTime:   end,
	})
	require.NoError(t, err)
	return b
}

func TestReserveRejectsInvalidInterval(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))
	start, end := window(11, 10)

	_, err := resolver.Reserve(context.Background(), ReserveInput{
		StationID: "st-1",
		Requester: Requester{UserID: 1},
		StartTime: start,
		EndTime:   end,
	})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidArgument, e.Kind)
	assert.Equal(t, "end_time", e.Field)

	// Zero-length windows are rejected too.
	_, err = resolver.Reserve(context.Background(), ReserveInput{
		StationID: "st-1",
		Requester: Requester{UserID: 1},
		StartTime: start,
		EndTime:   start,
	})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestReserveUnknownStation(t *testing.T) {
	resolver, _ := newTestResolver()
	start, end := window(10, 11)

	_, err := resolver.Reserve(context.Background(), ReserveInput{
		StationID: "missing",
		Requester: Requester{UserID: 1},
		StartTime: start,
		EndTime:   end,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReserveNonOperationalStation(t *testing.T) {
	station := operationalStation("st-1")
	station.Operational = false
	resolver, _ := newTestResolver(station)
	start, end := window(10, 11)

	_, err := resolver.Reserve(context.Background(), ReserveInput{
		StationID: "st-1",
		Requester: Requester{UserID: 1},
		StartTime: start,
		EndTime:   end,
	})
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))
}

func TestReserveRejectsOverlap(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))

	first := reserveAt(t, resolver, "st-1", 10, 11) // [10:00, 11:00)

	start, end := window(10, 11)
	_, err := resolver.Reserve(context.Background(), ReserveInput{
		StationID: "st-1",
		Requester: Requester{UserID: 2},
		StartTime: start.Add(30 * time.Minute), // [10:30, 11:30)
		EndTime:   end.Add(30 * time.Minute),
	})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, first.ID, e.ConflictID)
}

func TestReserveBackToBackWindows(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))

	// Half-open intervals: [10,11) then [11,12) share no instant.
	first := reserveAt(t, resolver, "st-1", 10, 11)
	second := reserveAt(t, resolver, "st-1", 11, 12)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, models.BookingStatusActive, first.Status)
	assert.Equal(t, models.BookingStatusActive, second.Status)
}

func TestReserveDifferentStationsDoNotConflict(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"), operationalStation("st-2"))

	reserveAt(t, resolver, "st-1", 10, 11)
	reserveAt(t, resolver, "st-2", 10, 11)
}

func TestConcurrentOverlappingReservationsAdmitExactlyOne(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))
	start, end := window(10, 11)

	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := resolver.Reserve(context.Background(), ReserveInput{
				StationID: "st-1",
				Requester: Requester{UserID: int64(i)},
				StartTime: start,
				EndTime:   end,
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	admitted, conflicts := 0, 0
	for _, err := range errs {
		switch apperr.KindOf(err) {
		case apperr.Kind(0):
			admitted++
		case apperr.KindConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCancelTransitionsAndIdempotency(t *testing.T) {
	resolver, store := newTestResolver(operationalStation("st-1"))
	booked := reserveAt(t, resolver, "st-1", 10, 11)
	owner := Requester{UserID: 1}

	changed, err := resolver.Cancel(context.Background(), booked.ID, owner)
	require.NoError(t, err)
	assert.True(t, changed)
	got, err := store.GetByID(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, got.Status)

	// Repeated cancellation of a cancelled booking is a no-op and reports no
	// transition, so callers do not repeat settlement or event side effects.
	changed, err = resolver.Cancel(context.Background(), booked.ID, owner)
	require.NoError(t, err)
	assert.False(t, changed)

	// The slot is free again.
	reserveAt(t, resolver, "st-1", 10, 11)
}

func TestCancelAuthorization(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))
	booked := reserveAt(t, resolver, "st-1", 10, 11) // owned by user 1

	_, err := resolver.Cancel(context.Background(), booked.ID, Requester{UserID: 7})
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))

	// Operators may cancel anyone's booking.
	changed, err := resolver.Cancel(context.Background(), booked.ID, Requester{UserID: 7, Operator: true})
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestCancelMissingBooking(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))
	_, err := resolver.Cancel(context.Background(), "missing", Requester{UserID: 1})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCompleteIsTerminal(t *testing.T) {
	resolver, store := newTestResolver(operationalStation("st-1"))
	booked := reserveAt(t, resolver, "st-1", 10, 11)

	require.NoError(t, resolver.Complete(context.Background(), booked.ID))
	got, err := store.GetByID(context.Background(), booked.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCompleted, got.Status)

	// No transition out of COMPLETED.
	err = resolver.Complete(context.Background(), booked.ID)
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))
	_, err = resolver.Cancel(context.Background(), booked.ID, Requester{UserID: 1})
	assert.Equal(t, apperr.KindPreconditionFailed, apperr.KindOf(err))
}

func TestCompletedBookingFreesTheSlot(t *testing.T) {
	resolver, _ := newTestResolver(operationalStation("st-1"))
	booked := reserveAt(t, resolver, "st-1", 10, 11)

	require.NoError(t, resolver.Complete(context.Background(), booked.ID))
	reserveAt(t, resolver, "st-1", 10, 11)
}
