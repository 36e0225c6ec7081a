// Package queue defines the notification events exchanged over the
// message broker and the background consumer that delivers them.
package queue

// Queue names used on the broker.
const (
	ConfirmedQueue = "booking.confirmed"
	CancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking is successfully
// confirmed.  It carries enough information for downstream consumers to
// send the confirmation message without querying the primary database.
type BookingConfirmedEvent struct {
	EventID         string  `json:"event_id"`
	BookingID       uint64  `json:"booking_id"`
	ClassID         uint64  `json:"class_id"`
	ClassTitle      string  `json:"class_title"`
	StartsAt        string  `json:"starts_at"`
	CustomerName    string  `json:"customer_name"`
	CustomerEmail   string  `json:"customer_email"`
	Participants    int     `json:"participants"`
	PaymentMode     string  `json:"payment_mode"`
	TotalPrice      float64 `json:"total_price"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
	ConfirmedAt     string  `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and
// its deposit refunded.
type BookingCancelledEvent struct {
	EventID        string  `json:"event_id"`
	BookingID      uint64  `json:"booking_id"`
	ClassID        uint64  `json:"class_id"`
	ClassTitle     string  `json:"class_title"`
	StartsAt       string  `json:"starts_at"`
	CustomerName   string  `json:"customer_name"`
	CustomerEmail  string  `json:"customer_email"`
	Participants   int     `json:"participants"`
	RefundedAmount float64 `json:"refunded_amount"`
	CancelledAt    string  `json:"cancelled_at"`
}
