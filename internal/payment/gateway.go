// Package payment defines the gateway port the booking lifecycle talks
// to and its Stripe-backed implementation.  The lifecycle never touches
// the processor SDK directly; it authorizes, verifies and refunds
// through this interface so tests can substitute a fake.
package payment

import (
	"context"
	"errors"
)

// Intent statuses surfaced to callers.  Only the succeeded status
// matters to the booking lifecycle; everything else blocks confirmation.
const StatusSucceeded = "succeeded"

// ErrNotSucceeded is returned when an authorization exists but has not
// completed successfully, e.g. the customer abandoned the payment.
var ErrNotSucceeded = errors.New("payment not completed")

// IntentRequest describes the authorization to create at quote time.
// The amount is in integer minor units (cents).
type IntentRequest struct {
	AmountMinor  int64
	Currency     string
	Description  string
	ReceiptEmail string
	Metadata     map[string]string
}

// Intent is the gateway-side pending charge created at quote time and
// verified at confirm time.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountMinor  int64
}

// WebhookEvent is a verified asynchronous payment event.
type WebhookEvent struct {
	Type       string
	PaymentRef string
}

// Gateway is the port to the external payment processor.
type Gateway interface {
	// CreateIntent creates a payment authorization for the given amount
	// and returns its reference and client secret.
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)

	// GetIntent retrieves the current state of an authorization.
	GetIntent(ctx context.Context, id string) (*Intent, error)

	// Refund returns amountMinor cents of the payment identified by
	// paymentRef to the customer.
	Refund(ctx context.Context, paymentRef string, amountMinor int64) error

	// VerifyWebhook checks the processor's signature over the raw
	// payload and decodes the event.
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
