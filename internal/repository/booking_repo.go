package repository

import (
	"context"
	"database/sql"
	"errors"

	"voltgrid/internal/models"
)

// BookingRepository persists reservations.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository returns repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, station_id, user_id, start_time, end_time, status,
	created_at, updated_at`

// Create inserts a new booking.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	const query = `
		INSERT INTO bookings (id, station_id, user_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		booking.ID,
		booking.StationID,
		booking.UserID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE id = $1
	`
	var b models.Booking
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&b.ID,
		&b.StationID,
		&b.UserID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListActiveByStation returns all ACTIVE bookings for the station ordered by
// start time.
func (r *BookingRepository) ListActiveByStation(ctx context.Context, stationID string) ([]models.Booking, error) {
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE station_id = $1 AND status = 'ACTIVE'
		ORDER BY start_time
	`
	rows, err := r.db.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookings(rows)
}

// CountActiveByStation returns the number of ACTIVE bookings for a station.
func (r *BookingRepository) CountActiveByStation(ctx context.Context, stationID string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM bookings
		WHERE station_id = $1 AND status = 'ACTIVE'
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, stationID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ListByUser returns the user's last N bookings.
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus transitions the booking to the given status. Returns
// ErrNotFound when no row matched.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id, status string) error {
	const query = `
		UPDATE bookings
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(
			&b.ID,
			&b.StationID,
			&b.UserID,
			&b.StartTime,
			&b.EndTime,
			&b.Status,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
