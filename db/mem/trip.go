// Package mem is the in-memory TripDBWrapper used by tests and dev
// mode. It mirrors the document semantics of the Postgres wrapper:
// store-assigned identifiers, owner-filtered listing and array-union
// appends under a trip's day keys.
package mem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	dbt "traveleasy/db/db"
)

type inMemoryTripDBWrapper struct {
	trips    map[uuid.UUID]*dbt.Trip
	profiles map[string]*dbt.Profile

	// tripOrder keeps insertion order so listings behave like a
	// collection scan rather than a randomized map walk.
	tripOrder []uuid.UUID

	mu sync.RWMutex
}

// NewInMemoryTripDBWrapper creates and returns an empty in-memory store.
func NewInMemoryTripDBWrapper() dbt.TripDBWrapper {
	return &inMemoryTripDBWrapper{
		trips:    make(map[uuid.UUID]*dbt.Trip),
		profiles: make(map[string]*dbt.Profile),
	}
}

// CreateTrip assigns the identifier and stores a copy of the document.
func (db *inMemoryTripDBWrapper) CreateTrip(trip *dbt.Trip) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if _, exists := db.trips[trip.ID]; exists {
		return fmt.Errorf("trip with ID %s already exists", trip.ID)
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now()
	}

	stored := copyTrip(trip)
	db.trips[trip.ID] = stored
	db.tripOrder = append(db.tripOrder, trip.ID)
	return nil
}

func (db *inMemoryTripDBWrapper) CreateProfile(profile *dbt.Profile) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if _, exists := db.profiles[profile.UID]; exists {
		return fmt.Errorf("profile for uid %s already exists", profile.UID)
	}
	stored := *profile
	db.profiles[profile.UID] = &stored
	return nil
}

func (db *inMemoryTripDBWrapper) GetTrip(id uuid.UUID) (*dbt.Trip, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trip, exists := db.trips[id]
	if !exists {
		return nil, fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
	}
	return copyTrip(trip), nil
}

func (db *inMemoryTripDBWrapper) ListTripsByOwner(ownerUID string) ([]dbt.Trip, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trips := []dbt.Trip{}
	for _, id := range db.tripOrder {
		trip := db.trips[id]
		if trip.OwnerUID == ownerUID {
			trips = append(trips, *copyTrip(trip))
		}
	}
	return trips, nil
}

func (db *inMemoryTripDBWrapper) GetProfileByUID(uid string) (*dbt.Profile, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	profile, exists := db.profiles[uid]
	if !exists {
		return nil, fmt.Errorf("profile %s: %w", uid, dbt.ErrProfileNotFound)
	}
	profileCopy := *profile
	return &profileCopy, nil
}

func (db *inMemoryTripDBWrapper) UpdateTrip(id uuid.UUID, update dbt.TripUpdate) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trip, exists := db.trips[id]
	if !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
	}
	if update.Budget != nil {
		trip.Budget = *update.Budget
	}
	if update.Period != nil {
		trip.Period = *update.Period
	}
	return nil
}

// AppendDayExpenses appends to the day's sequence without deduplication.
func (db *inMemoryTripDBWrapper) AppendDayExpenses(id uuid.UUID, dayKey string, expenses []dbt.Expense) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trip, exists := db.trips[id]
	if !exists {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
	}
	if trip.Days == nil {
		trip.Days = make(map[string][]dbt.Expense)
	}
	trip.Days[dayKey] = append(trip.Days[dayKey], expenses...)
	return nil
}

func (db *inMemoryTripDBWrapper) DataLoaderGetTrips(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*dbt.Trip, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trips := make(map[uuid.UUID]*dbt.Trip, len(ids))
	for _, id := range ids {
		if trip, exists := db.trips[id]; exists {
			trips[id] = copyTrip(trip)
		}
	}
	return trips, nil
}

// copyTrip deep-copies a document so callers can never mutate stored
// state through a returned pointer.
func copyTrip(trip *dbt.Trip) *dbt.Trip {
	tripCopy := *trip
	if trip.Days != nil {
		tripCopy.Days = make(map[string][]dbt.Expense, len(trip.Days))
		for day, expenses := range trip.Days {
			expensesCopy := make([]dbt.Expense, len(expenses))
			copy(expensesCopy, expenses)
			tripCopy.Days[day] = expensesCopy
		}
	}
	return &tripCopy
}
