package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StatusSucceeded is the processor status of a captured intent.
const StatusSucceeded = "succeeded"

// Intent is the processor's view of a staged transaction.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

// Processor is the payment processor boundary.
type Processor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

var (
	newPaymentIntent = func(sc *client.API, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return sc.PaymentIntents.New(params)
	}
	getPaymentIntent = func(sc *client.API, id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
		return sc.PaymentIntents.Get(id, params)
	}
)

// StripeProcessor implements Processor on top of the Stripe API.
type StripeProcessor struct {
	sc *client.API
}

// NewStripeProcessor builds a client for secretKey. A non-empty backendURL
// points the API backend elsewhere (stripe-mock in development).
func NewStripeProcessor(secretKey, backendURL string) *StripeProcessor {
	var backends *stripe.Backends
	if backendURL != "" {
		cfg := &stripe.BackendConfig{URL: stripe.String(backendURL)}
		backends = &stripe.Backends{
			API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
			Uploads: stripe.GetBackend(stripe.UploadsBackend),
		}
	}

	return &StripeProcessor{sc: client.New(secretKey, backends)}
}

// CreateIntent stages a card payment of amount minor units.
func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := newPaymentIntent(p.sc, params)
	if err != nil {
		return nil, fmt.Errorf("%w: create intent: %v", common.ErrUpstream, err)
	}

	return fromStripe(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := getPaymentIntent(p.sc, id, params)
	if err != nil {
		if se, ok := err.(*stripe.Error); ok && se.HTTPStatusCode == 404 {
			return nil, fmt.Errorf("intent %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: get intent: %v", common.ErrUpstream, err)
	}

	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}
