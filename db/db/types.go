package db

import (
	"time"

	"github.com/google/uuid"
)

// Period is a trip's date range. End must never precede Start; the
// service layer rejects such input before it reaches a store.
type Period struct {
	Start time.Time `json:"inicio"`
	End   time.Time `json:"fim"`
}

// Expense is one spending entry under a trip's day key. Duplicates by
// value are legal and preserved.
type Expense struct {
	Name   string  `json:"nome"`
	Amount float64 `json:"valor"`
}

// Trip mirrors one document of the viagens collection.
type Trip struct {
	ID          uuid.UUID
	OwnerUID    string
	Destination string
	Budget      float64
	Period      Period
	CreatedAt   time.Time
	// Days maps a day key (YYYY-MM-DD) to the ordered expenses of
	// that itinerary day. Nil when no expense was ever recorded.
	Days map[string][]Expense
}

// TripUpdate carries the editable fields of a trip. The destination is
// deliberately absent: it is fixed at creation.
type TripUpdate struct {
	Budget *float64
	Period *Period
}

// Profile is the denormalized usuarios record written at registration.
type Profile struct {
	ID       uuid.UUID
	UID      string
	FullName string
	Phone    string
	Email    string
}
