package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/virtuve/class-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Bookings are created
// in the confirmed state and only ever transition to cancelled; rows
// are never deleted so the audit trail survives cancellations.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, class_id, class_title, customer_name, email, phone,
	participants, payment_mode, total_price, paid_amount, remaining_amount,
	status, payment_ref, created_at`

// Create inserts a new booking with status confirmed and populates the
// generated ID and creation timestamp.  The customer email is stored
// lower-cased so lookups and the cancellation ownership check are
// case-insensitive.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	title, err := json.Marshal(b.ClassTitle)
	if err != nil {
		return err
	}
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
	b.Status = model.BookingStatusConfirmed
	const q = `INSERT INTO bookings
		(class_id, class_title, customer_name, email, phone, participants,
		 payment_mode, total_price, paid_amount, remaining_amount, status, payment_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'confirmed', ?)`
	result, err := r.db.ExecContext(ctx, q,
		b.ClassID, title, b.CustomerName, b.Email, b.Phone, b.Participants,
		b.PaymentMode, b.TotalPrice, b.PaidAmount, b.RemainingAmount, b.PaymentRef,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	fresh, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	*b = *fresh
	return nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// ListAll returns every booking, newest first.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q)
}

// ListByEmail returns bookings for the given customer email, newest
// first.  Matching is case-insensitive: stored emails are lower-cased
// at write time and the argument is lower-cased here.
func (r *BookingRepo) ListByEmail(ctx context.Context, email string) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE email = ? ORDER BY created_at DESC, id DESC`
	return r.list(ctx, q, strings.ToLower(strings.TrimSpace(email)))
}

// CountConfirmedByClass returns the number of confirmed bookings that
// reference the given class.  Used to refuse class deletion.
func (r *BookingRepo) CountConfirmedByClass(ctx context.Context, classID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE class_id = ? AND status = 'confirmed'`,
		classID).Scan(&n)
	return n, err
}

// SumConfirmedParticipants returns the total participants over all
// confirmed bookings of a class.  It exists to audit the ledger
// invariant booked == sum(participants of confirmed bookings).
func (r *BookingRepo) SumConfirmedParticipants(ctx context.Context, classID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(participants), 0) FROM bookings WHERE class_id = ? AND status = 'confirmed'`,
		classID).Scan(&n)
	return n, err
}

// UpdateStatus transitions a booking to the given status.  The guard on
// the current status makes the confirmed → cancelled transition
// one-way and idempotence-safe: flipping an already-cancelled booking
// matches no row and returns ErrBookingNotFound.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(s scanner) (*model.Booking, error) {
	var b model.Booking
	var title []byte
	err := s.Scan(
		&b.ID, &b.ClassID, &title, &b.CustomerName, &b.Email, &b.Phone,
		&b.Participants, &b.PaymentMode, &b.TotalPrice, &b.PaidAmount,
		&b.RemainingAmount, &b.Status, &b.PaymentRef, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(title, &b.ClassTitle); err != nil {
		return nil, err
	}
	return &b, nil
}
