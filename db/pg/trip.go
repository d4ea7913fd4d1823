package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbt "traveleasy/db/db"
)

// GORMTripDBWrapper is a GORM-based PostgreSQL implementation of
// dbt.TripDBWrapper projecting the viagens/usuarios document schema
// onto relational tables.
type GORMTripDBWrapper struct {
	db *gorm.DB
}

// NewGORMTripDBWrapper creates and returns a new instance of GORMTripDBWrapper.
func NewGORMTripDBWrapper(db *gorm.DB) dbt.TripDBWrapper {
	return &GORMTripDBWrapper{
		db: db,
	}
}

// CreateTrip assigns the document identifier and inserts the trip.
func (pgdb *GORMTripDBWrapper) CreateTrip(trip *dbt.Trip) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now()
	}

	model := TripModel{
		ID:          trip.ID,
		OwnerUID:    trip.OwnerUID,
		Destination: trip.Destination,
		Budget:      trip.Budget,
		PeriodStart: trip.Period.Start,
		PeriodEnd:   trip.Period.End,
		CreatedAt:   trip.CreatedAt,
		Days:        ExpenseMap(trip.Days),
	}
	result := pgdb.db.Create(&model)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "duplicate key value violates unique constraint") {
			return fmt.Errorf("trip with ID %s already exists: %w", trip.ID, result.Error)
		}
		return fmt.Errorf("failed to create trip: %w", result.Error)
	}
	return nil
}

func (pgdb *GORMTripDBWrapper) CreateProfile(profile *dbt.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	model := ProfileModel{
		ID:       profile.ID,
		UID:      profile.UID,
		FullName: profile.FullName,
		Phone:    profile.Phone,
		Email:    profile.Email,
	}
	result := pgdb.db.Create(&model)
	if result.Error != nil {
		if strings.Contains(result.Error.Error(), "duplicate key value violates unique constraint") {
			return fmt.Errorf("profile for uid %s already exists: %w", profile.UID, result.Error)
		}
		return fmt.Errorf("failed to create profile: %w", result.Error)
	}
	return nil
}

func (pgdb *GORMTripDBWrapper) GetTrip(id uuid.UUID) (*dbt.Trip, error) {
	var model TripModel
	result := pgdb.db.First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
		}
		return nil, fmt.Errorf("failed to get trip %s: %w", id, result.Error)
	}
	return modelToTrip(&model), nil
}

func (pgdb *GORMTripDBWrapper) ListTripsByOwner(ownerUID string) ([]dbt.Trip, error) {
	var models []TripModel
	result := pgdb.db.Where("uid = ?", ownerUID).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list trips for owner %s: %w", ownerUID, result.Error)
	}

	trips := []dbt.Trip{}
	for i := range models {
		trips = append(trips, *modelToTrip(&models[i]))
	}
	return trips, nil
}

func (pgdb *GORMTripDBWrapper) GetProfileByUID(uid string) (*dbt.Profile, error) {
	var model ProfileModel
	result := pgdb.db.First(&model, "uid = ?", uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", uid, dbt.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, result.Error)
	}
	return &dbt.Profile{
		ID:       model.ID,
		UID:      model.UID,
		FullName: model.FullName,
		Phone:    model.Phone,
		Email:    model.Email,
	}, nil
}

func (pgdb *GORMTripDBWrapper) UpdateTrip(id uuid.UUID, update dbt.TripUpdate) error {
	fields := map[string]interface{}{}
	if update.Budget != nil {
		fields["orcamento"] = *update.Budget
	}
	if update.Period != nil {
		fields["periodo_inicio"] = update.Period.Start
		fields["periodo_fim"] = update.Period.End
	}
	if len(fields) == 0 {
		return nil
	}

	result := pgdb.db.Model(&TripModel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update trip %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
	}
	return nil
}

// AppendDayExpenses merges the expenses into dias under dayKey with a
// single jsonb_set statement, the relational equivalent of the
// document store's array-union field update. Existing entries are
// kept, duplicates included.
func (pgdb *GORMTripDBWrapper) AppendDayExpenses(id uuid.UUID, dayKey string, expenses []dbt.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	payload, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("failed to marshal expenses: %w", err)
	}

	result := pgdb.db.Model(&TripModel{}).
		Where("id = ?", id).
		Update("dias", gorm.Expr(
			"jsonb_set(coalesce(dias, '{}'::jsonb), array[?], coalesce(dias->?, '[]'::jsonb) || ?::jsonb)",
			dayKey, dayKey, string(payload),
		))
	if result.Error != nil {
		return fmt.Errorf("failed to append expenses to trip %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("trip %s: %w", id, dbt.ErrTripNotFound)
	}
	return nil
}

// DataLoaderGetTrips retrieves trips for a set of IDs in one query.
// This method is designed to be used with a DataLoader for batching.
func (pgdb *GORMTripDBWrapper) DataLoaderGetTrips(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*dbt.Trip, error) {
	var models []TripModel
	result := pgdb.db.WithContext(ctx).Where("id IN ?", ids).Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to retrieve trips: %w", result.Error)
	}

	trips := make(map[uuid.UUID]*dbt.Trip, len(models))
	for i := range models {
		trips[models[i].ID] = modelToTrip(&models[i])
	}
	return trips, nil
}

func modelToTrip(model *TripModel) *dbt.Trip {
	return &dbt.Trip{
		ID:          model.ID,
		OwnerUID:    model.OwnerUID,
		Destination: model.Destination,
		Budget:      model.Budget,
		Period: dbt.Period{
			Start: model.PeriodStart,
			End:   model.PeriodEnd,
		},
		CreatedAt: model.CreatedAt,
		Days:      map[string][]dbt.Expense(model.Days),
	}
}
