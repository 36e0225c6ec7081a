// Package pricing computes the monetary amounts for a booking request.
// It is pure and stateless: given a unit price, a participant count and
// a payment mode it produces the total, paid and remaining amounts.
// All values are rounded to two decimals using round-half-away-from-zero
// at the point of computation, and remaining is always derived as
// total − paid so that paid + remaining == total holds exactly.
package pricing

import (
	"errors"
	"math"

	"github.com/virtuve/class-booking/internal/model"
)

// DepositRate is the share of the total collected up front in partial mode.
const DepositRate = 0.10

var (
	// ErrInvalidParticipants is returned when the participant count is below one.
	ErrInvalidParticipants = errors.New("participants must be at least 1")
	// ErrNegativePrice is returned when the unit price is negative.
	ErrNegativePrice = errors.New("price must not be negative")
	// ErrInvalidPaymentMode is returned for modes other than full or partial.
	ErrInvalidPaymentMode = errors.New("payment mode must be full or partial")
)

// Amounts holds the computed monetary breakdown of a booking in euros.
type Amounts struct {
	Total     float64
	Paid      float64
	Remaining float64
}

// PaidMinorUnits returns the paid amount in integer minor units
// (cents), which is what the payment gateway charges.
func (a Amounts) PaidMinorUnits() int64 {
	return MinorUnits(a.Paid)
}

// MinorUnits converts a euro amount to integer cents for the gateway.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Quote computes the amounts for the given unit price, participant
// count and payment mode.  Full mode collects the whole total; partial
// mode collects a 10% deposit and tracks the remainder as owed.
func Quote(price float64, participants int, mode string) (Amounts, error) {
	if participants < 1 {
		return Amounts{}, ErrInvalidParticipants
	}
	if price < 0 {
		return Amounts{}, ErrNegativePrice
	}

	total := round2(price * float64(participants))
	var paid float64
	switch mode {
	case model.PaymentModeFull:
		paid = total
	case model.PaymentModePartial:
		paid = round2(total * DepositRate)
	default:
		return Amounts{}, ErrInvalidPaymentMode
	}

	return Amounts{
		Total:     total,
		Paid:      paid,
		Remaining: round2(total - paid),
	}, nil
}

// round2 rounds to two decimals, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
