// Package service implements the booking lifecycle: quote → confirm →
// cancel.  The service owns the orchestration between the capacity
// ledger, the amount calculator, the payment gateway and the
// notification sender; it never mutates the booked counter directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/virtuve/class-booking/internal/model"
	"github.com/virtuve/class-booking/internal/payment"
	"github.com/virtuve/class-booking/internal/pricing"
	"github.com/virtuve/class-booking/internal/repository"
)

// CancelWindow is the minimum lead time before a class starts during
// which cancellation is still allowed.
const CancelWindow = 24 * time.Hour

var (
	// ErrAlreadyCancelled is returned when cancelling a booking that is
	// already cancelled.  Capacity is not released a second time.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrCancelWindowClosed is returned when the class starts in less
	// than CancelWindow from now.
	ErrCancelWindowClosed = errors.New("cannot cancel less than 24 hours before the class")
)

// ClassStore is the slice of the class repository the lifecycle needs.
// ReserveSpots and ReleaseSpots must be atomic with respect to each
// other per class; see repository.ClassRepo.
type ClassStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Class, error)
	ReserveSpots(ctx context.Context, classID uint64, count int) error
	ReleaseSpots(ctx context.Context, classID uint64, count int) error
}

// BookingStore persists bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListAll(ctx context.Context) ([]model.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string) error
}

// Notifier delivers confirmation and cancellation messages.  Delivery
// is best-effort: failures are logged, never surfaced to the customer.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b *model.Booking, cl *model.Class) error
	BookingCancelled(ctx context.Context, b *model.Booking, cl *model.Class) error
}

// BookingService orchestrates the booking state machine.
type BookingService struct {
	classes  ClassStore
	bookings BookingStore
	gateway  payment.Gateway
	notifier Notifier
	currency string
	now      func() time.Time
}

// NewBookingService constructs a BookingService.  All dependencies
// must be non-nil.
func NewBookingService(classes ClassStore, bookings BookingStore, gateway payment.Gateway, notifier Notifier) *BookingService {
	if classes == nil || bookings == nil || gateway == nil || notifier == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		classes:  classes,
		bookings: bookings,
		gateway:  gateway,
		notifier: notifier,
		currency: "eur",
		now:      time.Now,
	}
}

// QuoteRequest is the input to the quote step.
type QuoteRequest struct {
	ClassID      uint64
	Participants int
	PaymentMode  string
	Email        string
	Name         string
}

// QuoteResult carries the created authorization back to the client.
type QuoteResult struct {
	ClientSecret    string
	PaymentIntentID string
	Amounts         pricing.Amounts
}

// Quote validates the request, computes the amounts and creates a
// payment authorization for the paid amount.  The availability check
// here is advisory only: no spots are reserved until Confirm, so an
// expired authorization leaves nothing to release.
func (s *BookingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	mode := normalizeMode(req.PaymentMode)
	cl, err := s.classes.GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	amounts, err := pricing.Quote(cl.Price, req.Participants, mode)
	if err != nil {
		return nil, err
	}
	if req.Participants > cl.AvailableSpots() {
		return nil, repository.ErrCapacityExceeded
	}

	title := cl.Title.Get("ru")
	suffix := ""
	if mode == model.PaymentModePartial {
		suffix = " (10% deposit)"
	}
	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountMinor:  amounts.PaidMinorUnits(),
		Currency:     s.currency,
		Description:  fmt.Sprintf("Booking: %s for %d participant(s)%s", title, req.Participants, suffix),
		ReceiptEmail: req.Email,
		Metadata: map[string]string{
			"class_id":         strconv.FormatUint(cl.ID, 10),
			"class_title":      title,
			"participants":     strconv.Itoa(req.Participants),
			"customer_email":   req.Email,
			"customer_name":    req.Name,
			"payment_mode":     mode,
			"total_price":      fmt.Sprintf("%.2f", amounts.Total),
			"paid_amount":      fmt.Sprintf("%.2f", amounts.Paid),
			"remaining_amount": fmt.Sprintf("%.2f", amounts.Remaining),
		},
	})
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		Amounts:         amounts,
	}, nil
}

// ConfirmRequest is the input to the confirm step.
type ConfirmRequest struct {
	PaymentIntentID string
	ClassID         uint64
	Name            string
	Email           string
	Phone           string
	Participants    int
	PaymentMode     string
}

// Confirm verifies the authorization with the gateway, re-checks
// capacity authoritatively through the ledger and persists the
// booking.  When the reservation no longer fits, the collected payment
// is refunded before the capacity error is surfaced.  When persistence
// fails after a successful reservation, both the reservation and the
// payment are compensated so no partial state survives.
func (s *BookingService) Confirm(ctx context.Context, req ConfirmRequest) (*model.Booking, error) {
	mode := normalizeMode(req.PaymentMode)

	intent, err := s.gateway.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.StatusSucceeded {
		return nil, payment.ErrNotSucceeded
	}

	cl, err := s.classes.GetByID(ctx, req.ClassID)
	if err != nil {
		return nil, err
	}
	amounts, err := pricing.Quote(cl.Price, req.Participants, mode)
	if err != nil {
		return nil, err
	}

	// Authoritative capacity check: a single atomic reserve on the ledger.
	if err := s.classes.ReserveSpots(ctx, cl.ID, req.Participants); err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			if refundErr := s.gateway.Refund(ctx, intent.ID, intent.AmountMinor); refundErr != nil {
				log.Printf("booking: refund of over-capacity payment %s failed: %v (needs reconciliation)", intent.ID, refundErr)
			}
		}
		return nil, err
	}

	b := &model.Booking{
		ClassID:         cl.ID,
		ClassTitle:      cl.Title,
		CustomerName:    req.Name,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:           req.Phone,
		Participants:    req.Participants,
		PaymentMode:     mode,
		TotalPrice:      amounts.Total,
		PaidAmount:      amounts.Paid,
		RemainingAmount: amounts.Remaining,
		Status:          model.BookingStatusConfirmed,
		PaymentRef:      intent.ID,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		if relErr := s.classes.ReleaseSpots(ctx, cl.ID, req.Participants); relErr != nil {
			log.Printf("booking: release after failed persist on class %d failed: %v (needs reconciliation)", cl.ID, relErr)
		}
		if refundErr := s.gateway.Refund(ctx, intent.ID, intent.AmountMinor); refundErr != nil {
			log.Printf("booking: refund after failed persist of payment %s failed: %v (needs reconciliation)", intent.ID, refundErr)
		}
		return nil, err
	}

	go func(b model.Booking, cl model.Class) {
		if err := s.notifier.BookingConfirmed(context.WithoutCancel(ctx), &b, &cl); err != nil {
			log.Printf("booking: confirmation notification for booking %d failed: %v", b.ID, err)
		}
	}(*b, *cl)

	return b, nil
}

// Cancel transitions a confirmed booking to cancelled.  The requester
// must present the booking's email (compared case-insensitively) and
// the class must start at least CancelWindow from now.  The refund is
// for exactly the paid amount, never the nominal total.  A gateway
// failure leaves the booking confirmed; a release failure after a
// successful refund still records the cancellation and flags the
// ledger for manual reconciliation.
func (s *BookingService) Cancel(ctx context.Context, bookingID uint64, email string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(strings.TrimSpace(email), b.Email) {
		// Do not reveal whether the booking exists to a wrong requester.
		return nil, repository.ErrBookingNotFound
	}
	if b.Status == model.BookingStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	cl, err := s.classes.GetByID(ctx, b.ClassID)
	if err != nil {
		return nil, err
	}
	if cl.StartsAt.Sub(s.now()) < CancelWindow {
		return nil, ErrCancelWindowClosed
	}

	// Refund what was actually collected, not the nominal total.
	if err := s.gateway.Refund(ctx, b.PaymentRef, pricing.MinorUnits(b.PaidAmount)); err != nil {
		return nil, err
	}

	if err := s.bookings.UpdateStatus(ctx, b.ID, model.BookingStatusConfirmed, model.BookingStatusCancelled); err != nil {
		log.Printf("booking: status flip of booking %d after refund failed: %v (needs reconciliation)", b.ID, err)
		return nil, err
	}
	b.Status = model.BookingStatusCancelled

	if err := s.classes.ReleaseSpots(ctx, b.ClassID, b.Participants); err != nil {
		log.Printf("booking: capacity release for cancelled booking %d failed: %v (needs reconciliation)", b.ID, err)
	}

	go func(b model.Booking, cl model.Class) {
		if err := s.notifier.BookingCancelled(context.WithoutCancel(ctx), &b, &cl); err != nil {
			log.Printf("booking: cancellation notification for booking %d failed: %v", b.ID, err)
		}
	}(*b, *cl)

	return b, nil
}

// ListAll returns every booking, newest first.
func (s *BookingService) ListAll(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.ListAll(ctx)
}

// ListByEmail returns the bookings for a customer email.
func (s *BookingService) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	return s.bookings.ListByEmail(ctx, email)
}

// normalizeMode coerces anything that is not "partial" to "full",
// matching the behavior the payment frontend has always relied on: an
// absent or unrecognized mode means pay in full.  Because of this
// coercion pricing.ErrInvalidPaymentMode cannot surface through the
// HTTP handlers; it guards direct callers of the calculator only.
func normalizeMode(mode string) string {
	if strings.ToLower(strings.TrimSpace(mode)) == model.PaymentModePartial {
		return model.PaymentModePartial
	}
	return model.PaymentModeFull
}
