package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeAdapter fetches payment intents from Stripe.
type StripeAdapter struct {
	api *client.API
}

func NewStripeAdapter(secretKey string) *StripeAdapter {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeAdapter{api: api}
}

func (a *StripeAdapter) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := a.api.PaymentIntents.Get(id, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if stripeErr.Code == stripe.ErrorCodeResourceMissing {
				return nil, fmt.Errorf("intent %s: %w", id, ErrIntentNotFound)
			}
			if stripeErr.HTTPStatusCode < 500 {
				return nil, fmt.Errorf("stripe rejected intent lookup: %s", stripeErr.Code)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	metadata := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		metadata[k] = v
	}

	return &Intent{
		ID:             pi.ID,
		Status:         string(pi.Status),
		Amount:         pi.Amount,
		AmountReceived: pi.AmountReceived,
		Currency:       strings.ToUpper(string(pi.Currency)),
		Metadata:       metadata,
	}, nil
}
