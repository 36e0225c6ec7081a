package model

import "time"

// Payment modes accepted for a booking.
const (
	PaymentModeFull    = "full"    // pay 100% up front
	PaymentModePartial = "partial" // pay a 10% deposit, remainder owed
)

// Booking statuses.  A booking row exists only from the confirmed state
// onward and transitions one-way to cancelled; rows are never deleted
// so the audit trail stays intact.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking records a confirmed reservation of participant slots against
// a class, tied to an external payment.  PaidAmount + RemainingAmount
// equals TotalPrice within one cent; the amounts are computed once by
// the pricing calculator and persisted for audit.
//
// Fields:
//  ID              – primary key identifier.
//  ClassID         – class being booked.
//  ClassTitle      – localized title snapshot taken at confirmation.
//  CustomerName    – name supplied by the customer.
//  Email           – customer email, stored lower-cased.
//  Phone           – customer phone number.
//  Participants    – number of participant slots reserved (≥ 1).
//  PaymentMode     – "full" or "partial".
//  TotalPrice      – price × participants in euros.
//  PaidAmount      – amount actually collected.
//  RemainingAmount – amount still owed (total − paid).
//  Status          – "confirmed" or "cancelled".
//  PaymentRef      – external payment intent identifier.
//  CreatedAt       – creation timestamp.
type Booking struct {
	ID              uint64        `json:"id"`
	ClassID         uint64        `json:"class_id"`
	ClassTitle      LocalizedText `json:"class_title"`
	CustomerName    string        `json:"customer_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	Participants    int           `json:"participants"`
	PaymentMode     string        `json:"payment_mode"`
	TotalPrice      float64       `json:"total_price"`
	PaidAmount      float64       `json:"paid_amount"`
	RemainingAmount float64       `json:"remaining_amount"`
	Status          string        `json:"status"`
	PaymentRef      string        `json:"payment_ref"`
	CreatedAt       time.Time     `json:"created_at"`
}
