// Package repository implements the persistence store on MySQL and
// defines the sentinel errors shared across repositories.  These
// sentinels let handlers and services distinguish failure scenarios
// with errors.Is instead of inspecting SQL errors directly.
package repository

import "errors"

// ErrClassNotFound is returned when no class exists with the given ID.
var ErrClassNotFound = errors.New("class not found")

// ErrBookingNotFound is returned when no booking exists with the given ID.
var ErrBookingNotFound = errors.New("booking not found")

// ErrCapacityExceeded is returned by ReserveSpots when the requested
// count does not fit into the class's remaining capacity.  The ledger
// row is left unchanged.
var ErrCapacityExceeded = errors.New("not enough spots available")

// ErrCapacityBelowBooked is returned when an update would set a class's
// capacity lower than its current booked count.
var ErrCapacityBelowBooked = errors.New("capacity below current bookings")

// ErrActiveBookings is returned when a class cannot be deleted because
// confirmed bookings still reference it.
var ErrActiveBookings = errors.New("class has active bookings")
