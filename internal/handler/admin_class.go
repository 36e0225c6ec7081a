package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/model"
	"github.com/virtuve/class-booking/internal/repository"
)

// AdminClassHandler serves the class management endpoints behind the
// admin JWT.
type AdminClassHandler struct {
	Classes  *repository.ClassRepo
	Bookings *repository.BookingRepo
}

func NewAdminClassHandler(classes *repository.ClassRepo, bookings *repository.BookingRepo) *AdminClassHandler {
	return &AdminClassHandler{Classes: classes, Bookings: bookings}
}

// classReq carries the editable fields of a class.  The localized
// fields accept either a per-locale object or a bare string; a bare
// string is expanded to all supported locales.
type classReq struct {
	Title        model.LocalizedText `json:"title"`
	Description  model.LocalizedText `json:"description"`
	Instructor   model.LocalizedText `json:"instructor"`
	Languages    []string            `json:"languages"`
	StartsAt     time.Time           `json:"starts_at"`
	Duration     string              `json:"duration"`
	Price        float64             `json:"price"`
	Capacity     int                 `json:"capacity"`
	AudienceType string              `json:"audience_type"`
}

func (req *classReq) validate() string {
	switch {
	case req.Title.IsEmpty():
		return "title required"
	case req.StartsAt.IsZero():
		return "starts_at required"
	case req.Price < 0:
		return "price must not be negative"
	case req.Capacity < 1:
		return "capacity must be at least 1"
	}
	return ""
}

func (req *classReq) toModel() *model.Class {
	return &model.Class{
		Title:        req.Title,
		Description:  req.Description,
		Instructor:   req.Instructor,
		Languages:    req.Languages,
		StartsAt:     req.StartsAt,
		Duration:     req.Duration,
		Price:        req.Price,
		Capacity:     req.Capacity,
		AudienceType: req.AudienceType,
	}
}

// Create adds a new class with zero booked spots.
func (h *AdminClassHandler) Create(c echo.Context) error {
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl := req.toModel()
	if err := h.Classes.Create(ctx, cl); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create class failed"})
	}
	return c.JSON(http.StatusCreated, cl)
}

// Update replaces a class's editable fields.  Shrinking capacity below
// the current booked count is refused with 409 so existing bookings
// keep their spots.
func (h *AdminClassHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}
	var req classReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl := req.toModel()
	cl.ID = id
	if err := h.Classes.Update(ctx, cl); err != nil {
		switch err {
		case repository.ErrClassNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case repository.ErrCapacityBelowBooked:
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below booked spots"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update class failed"})
	}
	return c.JSON(http.StatusOK, cl)
}

// Delete removes a class that has no confirmed bookings.
func (h *AdminClassHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Classes.Delete(ctx, id); err != nil {
		switch err {
		case repository.ErrClassNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case repository.ErrActiveBookings:
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has confirmed bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete class failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// classStats reconciles the ledger against the booking table.
type classStats struct {
	ClassID            uint64 `json:"class_id"`
	Capacity           int    `json:"capacity"`
	Booked             int    `json:"booked"`
	ConfirmedBookings  int    `json:"confirmed_bookings"`
	ConfirmedSpots     int    `json:"confirmed_spots"`
	LedgerIsConsistent bool   `json:"ledger_is_consistent"`
}

// Stats reports the booked counter next to the sum of participants over
// confirmed bookings, so operators can spot ledger drift after partial
// failures.
func (h *AdminClassHandler) Stats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get class failed"})
	}
	confirmed, err := h.Bookings.CountConfirmedByClass(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count bookings failed"})
	}
	spots, err := h.Bookings.SumConfirmedParticipants(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sum participants failed"})
	}

	return c.JSON(http.StatusOK, classStats{
		ClassID:            cl.ID,
		Capacity:           cl.Capacity,
		Booked:             cl.Booked,
		ConfirmedBookings:  confirmed,
		ConfirmedSpots:     spots,
		LedgerIsConsistent: cl.Booked == spots,
	})
}
