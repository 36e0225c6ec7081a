package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/payment"
)

// WebhookHandler receives asynchronous payment events from the gateway.
// Bookings are created synchronously in ConfirmBooking, so the webhook
// is an audit trail: events are verified against the signing secret and
// logged, never acted on blindly.
type WebhookHandler struct {
	Gateway payment.Gateway
}

func NewWebhookHandler(gateway payment.Gateway) *WebhookHandler {
	return &WebhookHandler{Gateway: gateway}
}

// Handle verifies the signature over the raw payload and acknowledges
// the event.  A bad signature gets 400 so the gateway retries are not
// silently swallowed.
func (h *WebhookHandler) Handle(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "read body failed"})
	}

	event, err := h.Gateway.VerifyWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "signature verification failed"})
	}

	switch event.Type {
	case "payment_intent.succeeded":
		log.Printf("webhook: payment succeeded ref=%s", event.PaymentRef)
	case "payment_intent.payment_failed":
		log.Printf("webhook: payment failed ref=%s", event.PaymentRef)
	case "charge.refunded":
		log.Printf("webhook: charge refunded ref=%s", event.PaymentRef)
	default:
		log.Printf("webhook: ignoring event type=%s", event.Type)
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
