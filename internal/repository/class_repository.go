package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"github.com/virtuve/class-booking/internal/model"
)

// ClassRepo provides CRUD operations for classes and owns the capacity
// ledger: the booked counter is mutated exclusively through
// ReserveSpots and ReleaseSpots.  Both are single conditional UPDATEs
// so the check-and-increment is atomic with respect to every other
// reserve/release on the same row; concurrent callers can never both
// succeed when only one reservation fits.
//
// The database must be opened with clientFoundRows=true so that
// RowsAffected reports matched rows; see database.Open.
type ClassRepo struct {
	db *sql.DB
}

// NewClassRepo returns a new ClassRepo bound to the given database.
func NewClassRepo(db *sql.DB) *ClassRepo { return &ClassRepo{db: db} }

const classColumns = `id, title, description, instructor, languages, starts_at,
	duration, price, capacity, booked, audience_type, created_at`

// Create inserts a new class with booked = 0 and populates the
// generated ID and creation timestamp on the provided model.
func (r *ClassRepo) Create(ctx context.Context, cl *model.Class) error {
	title, description, instructor, languages, err := marshalClassFields(cl)
	if err != nil {
		return err
	}
	const q = `INSERT INTO classes
		(title, description, instructor, languages, starts_at, duration, price, capacity, booked, audience_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	result, err := r.db.ExecContext(ctx, q,
		title, description, instructor, languages,
		cl.StartsAt.UTC(), cl.Duration, cl.Price, cl.Capacity, cl.AudienceType,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	cl.ID = uint64(id)
	fresh, err := r.GetByID(ctx, cl.ID)
	if err != nil {
		return err
	}
	*cl = *fresh
	return nil
}

// GetByID returns a single class or ErrClassNotFound.
func (r *ClassRepo) GetByID(ctx context.Context, id uint64) (*model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes WHERE id = ?`
	cl, err := scanClass(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrClassNotFound
	}
	return cl, err
}

// List returns all classes ordered by start time.
func (r *ClassRepo) List(ctx context.Context) ([]model.Class, error) {
	const q = `SELECT ` + classColumns + ` FROM classes ORDER BY starts_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	classes := make([]model.Class, 0)
	for rows.Next() {
		cl, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *cl)
	}
	return classes, rows.Err()
}

// Update replaces a class's descriptive fields, schedule, price and
// capacity.  The capacity change is guarded in the same statement:
// when the new capacity is below the current booked count the update
// matches no row and ErrCapacityBelowBooked is returned, so the
// booked ≤ capacity invariant cannot be broken by a concurrent
// reservation either.
func (r *ClassRepo) Update(ctx context.Context, cl *model.Class) error {
	title, description, instructor, languages, err := marshalClassFields(cl)
	if err != nil {
		return err
	}
	const q = `UPDATE classes SET
		title = ?, description = ?, instructor = ?, languages = ?,
		starts_at = ?, duration = ?, price = ?, capacity = ?, audience_type = ?
		WHERE id = ? AND booked <= ?`
	result, err := r.db.ExecContext(ctx, q,
		title, description, instructor, languages,
		cl.StartsAt.UTC(), cl.Duration, cl.Price, cl.Capacity, cl.AudienceType,
		cl.ID, cl.Capacity,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if exists, err := r.exists(ctx, cl.ID); err != nil {
			return err
		} else if !exists {
			return ErrClassNotFound
		}
		return ErrCapacityBelowBooked
	}
	fresh, err := r.GetByID(ctx, cl.ID)
	if err != nil {
		return err
	}
	*cl = *fresh
	return nil
}

// Delete removes a class unless confirmed bookings still reference it.
// The guard is part of the DELETE itself, so a booking confirmed
// concurrently cannot slip past a separate pre-check.
func (r *ClassRepo) Delete(ctx context.Context, id uint64) error {
	const q = `DELETE FROM classes WHERE id = ? AND NOT EXISTS (
		SELECT 1 FROM bookings WHERE class_id = ? AND status = 'confirmed')`
	result, err := r.db.ExecContext(ctx, q, id, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if exists, err := r.exists(ctx, id); err != nil {
			return err
		} else if !exists {
			return ErrClassNotFound
		}
		return ErrActiveBookings
	}
	return nil
}

// ReserveSpots atomically checks booked + count <= capacity and, if it
// fits, increments booked by count.  The check and the increment are a
// single UPDATE, so the affected-row count tells us whether the
// reservation won the race.  On failure nothing changes and
// ErrCapacityExceeded (or ErrClassNotFound) is returned.
func (r *ClassRepo) ReserveSpots(ctx context.Context, classID uint64, count int) error {
	const q = `UPDATE classes SET booked = booked + ? WHERE id = ? AND booked + ? <= capacity`
	result, err := r.db.ExecContext(ctx, q, count, classID, count)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if exists, err := r.exists(ctx, classID); err != nil {
			return err
		} else if !exists {
			return ErrClassNotFound
		}
		return ErrCapacityExceeded
	}
	return nil
}

// ReleaseSpots decrements booked by count.  Release must only ever be
// called with a count previously reserved; if the row holds fewer than
// count the decrement is refused, the counter is clamped to zero and
// the inconsistency is logged for manual reconciliation instead of
// letting booked go negative.
func (r *ClassRepo) ReleaseSpots(ctx context.Context, classID uint64, count int) error {
	const q = `UPDATE classes SET booked = booked - ? WHERE id = ? AND booked >= ?`
	result, err := r.db.ExecContext(ctx, q, count, classID, count)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if exists, err := r.exists(ctx, classID); err != nil {
			return err
		} else if !exists {
			return ErrClassNotFound
		}
		log.Printf("ledger: release of %d spots on class %d exceeds booked count; clamping to 0 (needs reconciliation)", count, classID)
		_, err := r.db.ExecContext(ctx, `UPDATE classes SET booked = 0 WHERE id = ?`, classID)
		return err
	}
	return nil
}

// AvailableSpots returns capacity - booked for the given class.
func (r *ClassRepo) AvailableSpots(ctx context.Context, classID uint64) (int, error) {
	var spots int
	err := r.db.QueryRowContext(ctx,
		`SELECT capacity - booked FROM classes WHERE id = ?`, classID).Scan(&spots)
	if err == sql.ErrNoRows {
		return 0, ErrClassNotFound
	}
	return spots, err
}

func (r *ClassRepo) exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM classes WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanClass.
type scanner interface {
	Scan(dest ...any) error
}

func scanClass(s scanner) (*model.Class, error) {
	var cl model.Class
	var title, description, instructor, languages []byte
	err := s.Scan(
		&cl.ID, &title, &description, &instructor, &languages,
		&cl.StartsAt, &cl.Duration, &cl.Price, &cl.Capacity, &cl.Booked,
		&cl.AudienceType, &cl.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(title, &cl.Title); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(description, &cl.Description); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(instructor, &cl.Instructor); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(languages, &cl.Languages); err != nil {
		return nil, err
	}
	return &cl, nil
}

func marshalClassFields(cl *model.Class) (title, description, instructor, languages []byte, err error) {
	if title, err = json.Marshal(cl.Title); err != nil {
		return
	}
	if description, err = json.Marshal(cl.Description); err != nil {
		return
	}
	if instructor, err = json.Marshal(cl.Instructor); err != nil {
		return
	}
	if cl.Languages == nil {
		cl.Languages = []string{}
	}
	languages, err = json.Marshal(cl.Languages)
	return
}
