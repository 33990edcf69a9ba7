// Package payment defines the payment-gateway contract consumed by the
// booking service, plus the Stripe-backed implementation.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable signals a transport-level failure talking to
	// the gateway; callers may retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrIntentNotFound means the gateway does not know the intent id.
	ErrIntentNotFound = errors.New("payment intent not found")
)

// Intent is the gateway's view of an attempted charge.
type Intent struct {
	ID             string
	Status         string
	Amount         int64
	AmountReceived int64
	Currency       string
	Metadata       map[string]string
}

type Adapter interface {
	GetPaymentIntent(ctx context.Context, id string) (*Intent, error)
}
