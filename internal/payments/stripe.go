// Package payments wraps the payment provider. Booking admission never depends
// on it synchronously; holds are placed after the reservation is committed.
package payments

import (
	"context"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// Provider is the payment collaborator consumed by the bookings service.
type Provider interface {
	// Hold places a manual-capture hold and returns the provider reference.
	Hold(ctx context.Context, amountCents int64, currency string) (string, error)
	// Capture finalizes a previously placed hold.
	Capture(ctx context.Context, providerRef string) error
	// Release cancels a hold without charging.
	Release(ctx context.Context, providerRef string) error
}

// StripeProvider implements Provider over Stripe PaymentIntents.
type StripeProvider struct{}

// NewStripeProvider sets the global stripe key and returns the provider.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{}
}

func (p *StripeProvider) Hold(ctx context.Context, amountCents int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

func (p *StripeProvider) Capture(ctx context.Context, providerRef string) error {
	_, err := paymentintent.Capture(providerRef, nil)
	return err
}

func (p *StripeProvider) Release(ctx context.Context, providerRef string) error {
	_, err := paymentintent.Cancel(providerRef, nil)
	return err
}
