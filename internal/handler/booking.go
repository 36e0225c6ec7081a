package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/payment"
	"github.com/virtuve/class-booking/internal/pricing"
	"github.com/virtuve/class-booking/internal/repository"
	"github.com/virtuve/class-booking/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	Svc *service.BookingService
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{Svc: svc}
}

type createIntentReq struct {
	ClassID      uint64 `json:"class_id"`
	Participants int    `json:"participants"`
	PaymentMode  string `json:"payment_mode"`
	Email        string `json:"email"`
	Name         string `json:"name"`
}

type createIntentResp struct {
	ClientSecret    string  `json:"client_secret"`
	PaymentIntentID string  `json:"payment_intent_id"`
	TotalPrice      float64 `json:"total_price"`
	PaidAmount      float64 `json:"paid_amount"`
	RemainingAmount float64 `json:"remaining_amount"`
}

// CreatePaymentIntent computes the amounts for a booking request and
// opens a payment authorization for the amount actually due now.
func (h *BookingHandler) CreatePaymentIntent(c echo.Context) error {
	var req createIntentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Svc.Quote(ctx, service.QuoteRequest{
		ClassID:      req.ClassID,
		Participants: req.Participants,
		PaymentMode:  req.PaymentMode,
		Email:        req.Email,
		Name:         req.Name,
	})
	if err != nil {
		return bookingError(c, err, "create payment intent failed")
	}
	return c.JSON(http.StatusOK, createIntentResp{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
		TotalPrice:      res.Amounts.Total,
		PaidAmount:      res.Amounts.Paid,
		RemainingAmount: res.Amounts.Remaining,
	})
}

type confirmReq struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClassID         uint64 `json:"class_id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Participants    int    `json:"participants"`
	PaymentMode     string `json:"payment_mode"`
}

// ConfirmBooking verifies the payment and records the booking.
func (h *BookingHandler) ConfirmBooking(c echo.Context) error {
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.PaymentIntentID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_intent_id required"})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	b, err := h.Svc.Confirm(ctx, service.ConfirmRequest{
		PaymentIntentID: req.PaymentIntentID,
		ClassID:         req.ClassID,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Participants:    req.Participants,
		PaymentMode:     req.PaymentMode,
	})
	if err != nil {
		return bookingError(c, err, "confirm booking failed")
	}
	return c.JSON(http.StatusCreated, b)
}

type cancelReq struct {
	BookingID uint64 `json:"booking_id"`
	Email     string `json:"email"`
}

// CancelBooking cancels a confirmed booking and refunds the collected
// amount, subject to the 24-hour cancellation policy.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BookingID == 0 || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id/email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	b, err := h.Svc.Cancel(ctx, req.BookingID, req.Email)
	if err != nil {
		return bookingError(c, err, "cancel booking failed")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking":         b,
		"refunded_amount": b.PaidAmount,
	})
}

// ListAll returns every booking; admin only.
func (h *BookingHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Svc.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// ListByEmail returns the bookings made with the given email.
func (h *BookingHandler) ListByEmail(c echo.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Param("email")))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Svc.ListByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, bookings)
}

// bookingError maps lifecycle errors to HTTP responses: validation
// errors to 400, missing records to 404, capacity and policy conflicts
// to 409, an unpaid authorization to 402 and everything else (gateway
// included) to 502/500.
func bookingError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidParticipants),
		errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, pricing.ErrInvalidPaymentMode):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrClassNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "not enough spots available"})
	case errors.Is(err, service.ErrAlreadyCancelled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
	case errors.Is(err, service.ErrCancelWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window closed"})
	case errors.Is(err, payment.ErrNotSucceeded):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment not completed"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "upstream timeout"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": fallback})
}
