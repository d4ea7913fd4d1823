package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTripNotFound is returned (possibly wrapped) by every
// TripDBWrapper implementation when the referenced document is absent.
var ErrTripNotFound = errors.New("trip not found")

// ErrProfileNotFound reports an absent usuarios record.
var ErrProfileNotFound = errors.New("profile not found")

type TripDBWrapper interface {
	// Create
	// CreateTrip assigns trip.ID (the store owns identifiers) and
	// persists the document.
	CreateTrip(trip *Trip) error
	CreateProfile(profile *Profile) error
	// Read
	GetTrip(id uuid.UUID) (*Trip, error)
	ListTripsByOwner(ownerUID string) ([]Trip, error)
	GetProfileByUID(uid string) (*Profile, error)
	// Update
	UpdateTrip(id uuid.UUID, update TripUpdate) error
	// AppendDayExpenses merges expenses into the trip's day map under
	// dayKey without touching existing entries. One document, one
	// write.
	AppendDayExpenses(id uuid.UUID, dayKey string, expenses []Expense) error
	// Data Loader
	DataLoaderGetTrips(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Trip, error)
}
