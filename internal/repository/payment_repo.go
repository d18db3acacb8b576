package repository

import (
	"context"
	"database/sql"
	"errors"

	"voltgrid/internal/models"
)

// PaymentRepository persists payment records tied to bookings.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository returns repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment row.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	const query = `
		INSERT INTO payments (id, booking_id, amount_cents, currency, status, provider_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.AmountCents,
		payment.Currency,
		payment.Status,
		payment.ProviderRef,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)
}

// GetByBooking returns the payment for a booking or ErrNotFound.
func (r *PaymentRepository) GetByBooking(ctx context.Context, bookingID string) (*models.Payment, error) {
	const query = `
		SELECT id, booking_id, amount_cents, currency, status, provider_ref, created_at, updated_at
		FROM payments
		WHERE booking_id = $1
	`
	var p models.Payment
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(
		&p.ID,
		&p.BookingID,
		&p.AmountCents,
		&p.Currency,
		&p.Status,
		&p.ProviderRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateStatus sets payment status and provider reference.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status, providerRef string) error {
	const query = `
		UPDATE payments
		SET status = $2,
		    provider_ref = COALESCE(NULLIF($3, ''), provider_ref),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, status, providerRef)
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
