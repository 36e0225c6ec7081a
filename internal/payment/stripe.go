package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeGateway implements Gateway on the official Stripe SDK.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds a gateway from the secret API key and the
// webhook signing secret.
func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

// CreateIntent creates a Stripe PaymentIntent.  Every call carries a
// fresh idempotency key so a retried HTTP request cannot double-charge.
func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// GetIntent retrieves a PaymentIntent by ID.
func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return intentFrom(pi), nil
}

// Refund returns amountMinor cents of the given payment intent.
func (g *StripeGateway) Refund(ctx context.Context, paymentRef string, amountMinor int64) error {
	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(uuid.NewString()),
		},
		PaymentIntent: stripe.String(paymentRef),
		Amount:        stripe.Int64(amountMinor),
	}
	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund %s: %w", paymentRef, err)
	}
	return nil
}

// VerifyWebhook validates the Stripe-Signature header over the raw
// payload and extracts the event type and payment reference.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: webhook verification: %w", err)
	}
	ref := ""
	if event.Data != nil {
		if id, ok := event.Data.Object["id"].(string); ok {
			ref = id
		}
	}
	return &WebhookEvent{Type: string(event.Type), PaymentRef: ref}, nil
}

func intentFrom(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountMinor:  pi.Amount,
	}
}
