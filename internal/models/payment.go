package models

import "time"

// Payment status values. SUCCEEDED means the hold was captured; FAILED covers
// every uncaptured terminal outcome, including a hold released on cancel. The
// provider distinguishes the two through the intent referenced by ProviderRef.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusSucceeded = "SUCCEEDED"
	PaymentStatusFailed    = "FAILED"
)

// Payment records the hold taken for a booking. ProviderRef is the payment
// provider's intent id; empty when the hold could not be placed yet.
type Payment struct {
	ID          string    `db:"id" json:"id"`
	BookingID   string    `db:"booking_id" json:"booking_id"`
	AmountCents int64     `db:"amount_cents" json:"amount_cents"`
	Currency    string    `db:"currency" json:"currency"`
	Status      string    `db:"status" json:"status"`
	ProviderRef string    `db:"provider_ref" json:"provider_ref,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
