package repository

import (
	"context"
	"database/sql"
	"time"

	"voltgrid/internal/models"
)

// SessionRepository reads and records charging sessions. The reservation core
// consumes sessions as occupancy context only.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Start records a new active session against a booking.
func (r *SessionRepository) Start(ctx context.Context, session *models.ChargingSession) (*models.ChargingSession, error) {
	const query = `
		INSERT INTO charging_sessions (booking_id, station_id, user_id, status, start_time, transaction_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (transaction_id) DO UPDATE SET
			booking_id = EXCLUDED.booking_id,
			station_id = EXCLUDED.station_id,
			user_id = EXCLUDED.user_id,
			status = EXCLUDED.status,
			start_time = EXCLUDED.start_time,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		session.BookingID,
		session.StationID,
		session.UserID,
		session.Status,
		session.StartTime,
		session.TransactionID,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteByBooking finalizes the running session attached to a booking.
func (r *SessionRepository) CompleteByBooking(ctx context.Context, bookingID string, endTime time.Time, energy float64) error {
	const query = `
		UPDATE charging_sessions
		SET end_time = $2,
		    energy_kwh = $3,
		    status = 'completed',
		    updated_at = NOW()
		WHERE booking_id = $1 AND status = 'active'
	`
	result, err := r.db.ExecContext(ctx, query, bookingID, endTime, energy)
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

// ActiveStationIDs returns the ids of stations with a running session.
func (r *SessionRepository) ActiveStationIDs(ctx context.Context) ([]string, error) {
	const query = `
		SELECT DISTINCT station_id
		FROM charging_sessions
		WHERE status = 'active'
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
