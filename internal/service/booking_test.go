package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtuve/class-booking/internal/model"
	"github.com/virtuve/class-booking/internal/payment"
	"github.com/virtuve/class-booking/internal/repository"
)

func testClass(id uint64, price float64, capacity, booked int, startsIn time.Duration) *model.Class {
	return &model.Class{
		ID:       id,
		Title:    model.LocalizedText{"ru": "Паста мастер-класс", "lv": "Pastas meistarklase"},
		StartsAt: time.Now().UTC().Add(startsIn),
		Price:    price,
		Capacity: capacity,
		Booked:   booked,
	}
}

func succeededIntent(id string, amountMinor int64) *payment.Intent {
	return &payment.Intent{
		ID:          id,
		Status:      payment.StatusSucceeded,
		AmountMinor: amountMinor,
	}
}

func TestQuoteFullPayment(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 12, 0, 72*time.Hour))
	gateway := newFakeGateway()
	svc := NewBookingService(classes, newFakeBookingStore(), gateway, &fakeNotifier{})

	res, err := svc.Quote(context.Background(), QuoteRequest{
		ClassID:      1,
		Participants: 2,
		PaymentMode:  "full",
		Email:        "anna@example.com",
		Name:         "Anna",
	})
	require.NoError(t, err)

	assert.Equal(t, 90.00, res.Amounts.Total)
	assert.Equal(t, 90.00, res.Amounts.Paid)
	assert.Equal(t, 0.00, res.Amounts.Remaining)
	assert.NotEmpty(t, res.ClientSecret)
	assert.NotEmpty(t, res.PaymentIntentID)

	in, err := gateway.GetIntent(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), in.AmountMinor)
}

func TestQuotePartialChargesDepositOnly(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.50, 12, 0, 72*time.Hour))
	gateway := newFakeGateway()
	svc := NewBookingService(classes, newFakeBookingStore(), gateway, &fakeNotifier{})

	res, err := svc.Quote(context.Background(), QuoteRequest{
		ClassID:      1,
		Participants: 2,
		PaymentMode:  "partial",
		Email:        "anna@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, 91.00, res.Amounts.Total)
	assert.Equal(t, 9.10, res.Amounts.Paid)
	assert.Equal(t, 81.90, res.Amounts.Remaining)

	in, err := gateway.GetIntent(context.Background(), res.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, int64(910), in.AmountMinor)
}

func TestQuoteUnknownModeFallsBackToFull(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 12, 0, 72*time.Hour))
	gateway := newFakeGateway()
	svc := NewBookingService(classes, newFakeBookingStore(), gateway, &fakeNotifier{})

	for _, mode := range []string{"", "FULL", "installments"} {
		res, err := svc.Quote(context.Background(), QuoteRequest{
			ClassID:      1,
			Participants: 2,
			PaymentMode:  mode,
			Email:        "anna@example.com",
		})
		require.NoError(t, err, "mode %q", mode)
		assert.Equal(t, 90.00, res.Amounts.Paid, "mode %q charges the full total", mode)
		assert.Equal(t, 0.00, res.Amounts.Remaining, "mode %q", mode)
	}
}

func TestQuoteRejectsWhenNotEnoughSpots(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 10, 9, 72*time.Hour))
	gateway := newFakeGateway()
	svc := NewBookingService(classes, newFakeBookingStore(), gateway, &fakeNotifier{})

	_, err := svc.Quote(context.Background(), QuoteRequest{ClassID: 1, Participants: 2, PaymentMode: "full"})
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Empty(t, gateway.intents, "no authorization should be created for an unavailable class")
}

func TestQuoteUnknownClass(t *testing.T) {
	svc := NewBookingService(newFakeClassStore(), newFakeBookingStore(), newFakeGateway(), &fakeNotifier{})
	_, err := svc.Quote(context.Background(), QuoteRequest{ClassID: 99, Participants: 1, PaymentMode: "full"})
	assert.ErrorIs(t, err, repository.ErrClassNotFound)
}

func TestConfirmCreatesBookingAndReservesSpots(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 12, 0, 72*time.Hour))
	bookings := newFakeBookingStore()
	gateway := newFakeGateway(succeededIntent("pi_ok", 9000))
	svc := NewBookingService(classes, bookings, gateway, &fakeNotifier{})

	b, err := svc.Confirm(context.Background(), ConfirmRequest{
		PaymentIntentID: "pi_ok",
		ClassID:         1,
		Name:            "Anna",
		Email:           "Anna@Example.COM",
		Participants:    2,
		PaymentMode:     "full",
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusConfirmed, b.Status)
	assert.Equal(t, "anna@example.com", b.Email, "email must be stored lower-cased")
	assert.Equal(t, 90.00, b.TotalPrice)
	assert.Equal(t, 90.00, b.PaidAmount)
	assert.Equal(t, 0.00, b.RemainingAmount)
	assert.Equal(t, "pi_ok", b.PaymentRef)
	assert.Equal(t, 2, classes.booked(1))
}

func TestConfirmRejectsUnpaidIntent(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 12, 0, 72*time.Hour))
	gateway := newFakeGateway(&payment.Intent{ID: "pi_pending", Status: "requires_payment_method", AmountMinor: 9000})
	svc := NewBookingService(classes, newFakeBookingStore(), gateway, &fakeNotifier{})

	_, err := svc.Confirm(context.Background(), ConfirmRequest{
		PaymentIntentID: "pi_pending",
		ClassID:         1,
		Participants:    2,
		PaymentMode:     "full",
	})
	assert.ErrorIs(t, err, payment.ErrNotSucceeded)
	assert.Equal(t, 0, classes.booked(1), "no spots reserved for an unpaid intent")
}

func TestConfirmOverCapacityRefundsPayment(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 10, 9, 72*time.Hour))
	bookings := newFakeBookingStore()
	gateway := newFakeGateway(succeededIntent("pi_late", 9000))
	svc := NewBookingService(classes, bookings, gateway, &fakeNotifier{})

	_, err := svc.Confirm(context.Background(), ConfirmRequest{
		PaymentIntentID: "pi_late",
		ClassID:         1,
		Participants:    2,
		PaymentMode:     "full",
	})
	assert.ErrorIs(t, err, repository.ErrCapacityExceeded)
	assert.Equal(t, 9, classes.booked(1), "booked counter must not move")
	assert.Equal(t, 0, bookings.count())

	refunds := gateway.refundsMade()
	require.Len(t, refunds, 1)
	assert.Equal(t, "pi_late", refunds[0].ref)
	assert.Equal(t, int64(9000), refunds[0].amountMinor, "the full collected amount is returned")
}

func TestConfirmConcurrentRequestsNeverOverbook(t *testing.T) {
	// Two free spots, three concurrent confirmations of two participants
	// each: exactly one may win.
	classes := newFakeClassStore(testClass(1, 45.00, 10, 8, 72*time.Hour))
	bookings := newFakeBookingStore()
	gateway := newFakeGateway(
		succeededIntent("pi_a", 9000),
		succeededIntent("pi_b", 9000),
		succeededIntent("pi_c", 9000),
	)
	svc := NewBookingService(classes, bookings, gateway, &fakeNotifier{})

	var wg sync.WaitGroup
	results := make(chan error, 3)
	for _, ref := range []string{"pi_a", "pi_b", "pi_c"} {
		wg.Add(1)
		go func(ref string) {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), ConfirmRequest{
				PaymentIntentID: ref,
				ClassID:         1,
				Email:           "race@example.com",
				Participants:    2,
				PaymentMode:     "full",
			})
			results <- err
		}(ref)
	}
	wg.Wait()
	close(results)

	var succeeded, capacityErrs int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, repository.ErrCapacityExceeded)
		capacityErrs++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 2, capacityErrs)
	assert.Equal(t, 10, classes.booked(1), "booked never exceeds capacity")
	assert.Equal(t, 1, bookings.count())
	assert.Len(t, gateway.refundsMade(), 2, "both losers get their money back")
}

func TestConfirmPersistFailureCompensates(t *testing.T) {
	classes := newFakeClassStore(testClass(1, 45.00, 10, 0, 72*time.Hour))
	bookings := newFakeBookingStore()
	bookings.createErr = context.DeadlineExceeded
	gateway := newFakeGateway(succeededIntent("pi_x", 9000))
	svc := NewBookingService(classes, bookings, gateway, &fakeNotifier{})

	_, err := svc.Confirm(context.Background(), ConfirmRequest{
		PaymentIntentID: "pi_x",
		ClassID:         1,
		Participants:    2,
		PaymentMode:     "full",
	})
	require.Error(t, err)

	assert.Equal(t, 0, classes.booked(1), "reserved spots are released")
	refunds := gateway.refundsMade()
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(9000), refunds[0].amountMinor)
}

func seedCancellable(t *testing.T, startsIn time.Duration) (*fakeClassStore, *fakeBookingStore, *fakeGateway, *BookingService) {
	t.Helper()
	classes := newFakeClassStore(testClass(1, 45.50, 12, 2, startsIn))
	bookings := newFakeBookingStore(&model.Booking{
		ID:              7,
		ClassID:         1,
		Email:           "anna@example.com",
		Participants:    2,
		PaymentMode:     model.PaymentModePartial,
		TotalPrice:      91.00,
		PaidAmount:      9.10,
		RemainingAmount: 81.90,
		Status:          model.BookingStatusConfirmed,
		PaymentRef:      "pi_seed",
	})
	gateway := newFakeGateway(succeededIntent("pi_seed", 910))
	svc := NewBookingService(classes, bookings, gateway, &fakeNotifier{})
	return classes, bookings, gateway, svc
}

func TestCancelRefundsPaidAmountNotTotal(t *testing.T) {
	classes, bookings, gateway, svc := seedCancellable(t, 72*time.Hour)

	b, err := svc.Cancel(context.Background(), 7, "anna@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, b.Status)

	refunds := gateway.refundsMade()
	require.Len(t, refunds, 1)
	assert.Equal(t, "pi_seed", refunds[0].ref)
	assert.Equal(t, int64(910), refunds[0].amountMinor, "refund is the collected deposit, not the nominal total")

	assert.Equal(t, 0, classes.booked(1), "spots returned to the pool")

	stored, err := bookings.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status)
}

func TestCancelEmailMatchIsCaseInsensitive(t *testing.T) {
	_, _, _, svc := seedCancellable(t, 72*time.Hour)
	_, err := svc.Cancel(context.Background(), 7, "  ANNA@Example.Com ")
	assert.NoError(t, err)
}

func TestCancelWrongEmailLooksLikeMissingBooking(t *testing.T) {
	_, _, gateway, svc := seedCancellable(t, 72*time.Hour)
	_, err := svc.Cancel(context.Background(), 7, "other@example.com")
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)
	assert.Empty(t, gateway.refundsMade())
}

func TestCancelWindowBoundary(t *testing.T) {
	start := time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"just inside the window", start.Add(-23*time.Hour - 59*time.Minute), ErrCancelWindowClosed},
		{"exactly 24 hours before", start.Add(-24 * time.Hour), nil},
		{"comfortably before", start.Add(-24*time.Hour - time.Minute), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classes, _, _, svc := seedCancellable(t, 0)
			classes.classes[1].StartsAt = start
			svc.now = func() time.Time { return tc.now }

			_, err := svc.Cancel(context.Background(), 7, "anna@example.com")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCancelTwiceDoesNotDoubleRelease(t *testing.T) {
	classes, _, gateway, svc := seedCancellable(t, 72*time.Hour)

	_, err := svc.Cancel(context.Background(), 7, "anna@example.com")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), 7, "anna@example.com")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	assert.Equal(t, 0, classes.booked(1), "released exactly once")
	assert.Len(t, gateway.refundsMade(), 1, "refunded exactly once")
}

func TestCancelGatewayFailureKeepsBookingConfirmed(t *testing.T) {
	classes, bookings, gateway, svc := seedCancellable(t, 72*time.Hour)
	gateway.refundErr = context.DeadlineExceeded

	_, err := svc.Cancel(context.Background(), 7, "anna@example.com")
	require.Error(t, err)

	stored, err := bookings.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, stored.Status, "no refund, no state change")
	assert.Equal(t, 2, classes.booked(1))
}

func TestCancelReleaseFailureStillRecordsCancellation(t *testing.T) {
	classes, bookings, gateway, svc := seedCancellable(t, 72*time.Hour)
	classes.releaseErr = context.DeadlineExceeded

	b, err := svc.Cancel(context.Background(), 7, "anna@example.com")
	require.NoError(t, err, "release failure after a refund must not fail the cancellation")
	assert.Equal(t, model.BookingStatusCancelled, b.Status)
	assert.Len(t, gateway.refundsMade(), 1)

	stored, err := bookings.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, stored.Status)
}
