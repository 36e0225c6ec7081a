package model

import "time"

// Class represents a scheduled cooking class with finite capacity.
// The booked counter is owned by the capacity ledger in the repository
// layer and must never be mutated directly; booked ≤ capacity holds at
// all times.
//
// Fields:
//  ID           – primary key identifier.
//  Title        – localized class title.
//  Description  – localized description.
//  Instructor   – localized instructor name.
//  Languages    – locales the class is taught in.
//  StartsAt     – when the class begins (UTC).
//  Duration     – free-form duration label, e.g. "3 hours".
//  Price        – price per participant in euros.
//  Capacity     – maximum number of participants.
//  Booked       – participants currently booked (ledger-owned).
//  AudienceType – intended audience ("mixed", "kids", "adults").
//  CreatedAt    – creation timestamp.
type Class struct {
	ID           uint64        `json:"id"`
	Title        LocalizedText `json:"title"`
	Description  LocalizedText `json:"description"`
	Instructor   LocalizedText `json:"instructor"`
	Languages    []string      `json:"languages"`
	StartsAt     time.Time     `json:"starts_at"`
	Duration     string        `json:"duration"`
	Price        float64       `json:"price"`
	Capacity     int           `json:"capacity"`
	Booked       int           `json:"booked"`
	AudienceType string        `json:"audience_type"`
	CreatedAt    time.Time     `json:"created_at"`
}

// AvailableSpots returns capacity minus booked.  It can be negative
// only if an external migration corrupted the row; the ledger itself
// never produces a negative value.
func (c *Class) AvailableSpots() int {
	return c.Capacity - c.Booked
}
