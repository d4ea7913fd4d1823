// Package trip implements the trip repository and view-state
// operations: create and edit trips, live list and detail feeds, and
// per-day expense appends. Input validation always runs before any
// store access, and every live feed hands the caller an explicit
// handle it must close.
package trip

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"traveleasy/apperr"
	db "traveleasy/db/db"
	"traveleasy/mq/mq"
	"traveleasy/session"
)

type Service struct {
	store db.TripDBWrapper
	feeds mq.TripFeedQueueWrapper
}

func NewService(store db.TripDBWrapper, feeds mq.TripFeedQueueWrapper) *Service {
	return &Service{
		store: store,
		feeds: feeds,
	}
}

// CreateTrip persists a new trip owned by the session's user. The
// destination must have been resolved through the city lookup, which
// is what the place identifier attests.
func (s *Service) CreateTrip(ctx context.Context, sess *session.Session, destination, placeID, budgetInput string, period db.Period) (*db.Trip, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if strings.TrimSpace(destination) == "" || strings.TrimSpace(placeID) == "" {
		return nil, apperr.Validation("Por favor, selecione uma cidade válida.")
	}
	budget, err := ParseBudgetBRL(budgetInput)
	if err != nil {
		return nil, apperr.Validation("Por favor, insira um orçamento válido.")
	}
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	trip := &db.Trip{
		OwnerUID:    sess.UID,
		Destination: destination,
		Budget:      budget,
		Period:      period,
		CreatedAt:   time.Now(),
	}
	if err := s.store.CreateTrip(trip); err != nil {
		return nil, apperr.Remote("Não foi possível salvar a viagem.", err)
	}

	s.publish(mq.ActionCreate, trip)
	return trip, nil
}

// UpdateTrip edits a trip's budget and period. The destination is
// fixed at creation and cannot be changed here. An update that leaves
// the document untouched publishes no feed event.
func (s *Service) UpdateTrip(ctx context.Context, sess *session.Session, tripID uuid.UUID, budgetInput *string, period *db.Period) (*db.Trip, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	update := db.TripUpdate{}
	if budgetInput != nil {
		budget, err := ParseBudgetBRL(*budgetInput)
		if err != nil {
			return nil, apperr.Validation("Por favor, insira um orçamento válido.")
		}
		update.Budget = &budget
	}
	if period != nil {
		if err := validatePeriod(*period); err != nil {
			return nil, err
		}
		update.Period = period
	}

	before, err := s.getOwnedTrip(tripID, sess.UID)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateTrip(tripID, update); err != nil {
		if errors.Is(err, db.ErrTripNotFound) {
			return nil, apperr.NotFound("Viagem não encontrada.")
		}
		return nil, apperr.Remote("Não foi possível salvar a viagem.", err)
	}

	after := *before
	if update.Budget != nil {
		after.Budget = *update.Budget
	}
	if update.Period != nil {
		after.Period = *update.Period
	}

	if tripChanged(before, &after) {
		s.publish(mq.ActionUpdate, &after)
	}
	return &after, nil
}

// AppendExpenses merges expense entries into the trip's day map under
// dayKey. Existing entries are untouched and duplicates by value are
// preserved.
func (s *Service) AppendExpenses(ctx context.Context, sess *session.Session, tripID uuid.UUID, dayKey string, expenses []db.Expense) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := time.Parse(dayKeyLayout, dayKey); err != nil {
		return apperr.Validation("Dia inválido.")
	}
	if len(expenses) == 0 {
		return apperr.Validation("Nenhuma despesa foi adicionada.")
	}
	for _, expense := range expenses {
		if strings.TrimSpace(expense.Name) == "" || expense.Amount < 0 || math.IsNaN(expense.Amount) {
			return apperr.Validation("Por favor, preencha todos os campos.")
		}
	}

	trip, err := s.getOwnedTrip(tripID, sess.UID)
	if err != nil {
		return err
	}

	if err := s.store.AppendDayExpenses(tripID, dayKey, expenses); err != nil {
		if errors.Is(err, db.ErrTripNotFound) {
			return apperr.NotFound("Viagem não encontrada.")
		}
		return apperr.Remote("Não foi possível salvar as despesas.", err)
	}

	s.publish(mq.ActionUpdate, trip)
	return nil
}

// Trips returns a one-shot snapshot of the user's trips, newest
// ordering left to the store.
func (s *Service) Trips(ctx context.Context, sess *session.Session) ([]db.Trip, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	trips, err := s.store.ListTripsByOwner(sess.UID)
	if err != nil {
		return nil, apperr.Remote("Não foi possível buscar as viagens.", err)
	}
	return trips, nil
}

// TripByID returns a one-shot detail snapshot of one trip. When the
// caller carries a request-scoped loader the point read goes through
// it, so concurrent detail reads of one request collapse into a single
// batched query; with a nil loader the store is read directly.
func (s *Service) TripByID(ctx context.Context, sess *session.Session, tripID uuid.UUID, loader *db.TripDataLoader) (*TripDetail, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if loader == nil {
		return s.loadDetail(tripID, sess.UID)
	}

	// The mapped loader reports absent keys as errors.
	trip, err := loader.GetTrip.Load(ctx, tripID)
	if err != nil || trip == nil || trip.OwnerUID != sess.UID {
		return nil, apperr.NotFound("Viagem não encontrada.")
	}
	return &TripDetail{
		Trip: *trip,
		Days: ItineraryDays(trip.Period),
	}, nil
}

// TripListStream is the live trip list of one owner. Updates delivers
// the initial snapshot and then a fresh full snapshot after every
// change to the owner's trips. The caller must Close the stream; a
// leaked stream keeps consuming feed messages nobody reads.
type TripListStream struct {
	updates chan []db.Trip
	cancel  context.CancelFunc
}

func (st *TripListStream) Updates() <-chan []db.Trip { return st.updates }

// Close tears the subscription down and closes Updates.
func (st *TripListStream) Close() { st.cancel() }

// ListTrips opens the live trip list of the session's user. Every
// snapshot is filtered by owner at the query; no other user's trip can
// ever appear.
func (s *Service) ListTrips(ctx context.Context, sess *session.Session) (*TripListStream, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	snapshot, err := s.store.ListTripsByOwner(sess.UID)
	if err != nil {
		return nil, apperr.Remote("Não foi possível buscar as viagens.", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	updates := make(chan []db.Trip, 1)
	updates <- snapshot

	ownerUID := sess.UID
	err = mq.SubscribeFanIn(streamCtx, mq.OwnerTopic(ownerUID), s.feedQueues(),
		func(msg mq.TripFeedMessage) ([]db.Trip, bool, error) {
			trips, err := s.store.ListTripsByOwner(ownerUID)
			if err != nil {
				return nil, false, err
			}
			return trips, false, nil
		}, updates)
	if err != nil {
		cancel()
		return nil, apperr.Remote("Não foi possível buscar as viagens.", err)
	}

	return &TripListStream{updates: updates, cancel: cancel}, nil
}

// TripDetail is one live-detail update: the trip document plus the
// derived inclusive itinerary day sequence of its period.
type TripDetail struct {
	Trip db.Trip
	Days []time.Time
}

// TripDetailStream is the live view of a single trip. Same contract as
// TripListStream: the caller owns the handle and must Close it.
type TripDetailStream struct {
	updates chan TripDetail
	cancel  context.CancelFunc
}

func (st *TripDetailStream) Updates() <-chan TripDetail { return st.updates }

func (st *TripDetailStream) Close() { st.cancel() }

// WatchTrip opens the live detail stream of one trip.
func (s *Service) WatchTrip(ctx context.Context, sess *session.Session, tripID uuid.UUID) (*TripDetailStream, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}

	initial, err := s.loadDetail(tripID, sess.UID)
	if err != nil {
		return nil, err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	updates := make(chan TripDetail, 1)
	updates <- *initial

	ownerUID := sess.UID
	err = mq.SubscribeFanIn(streamCtx, mq.TripTopic(tripID), s.feedQueues(),
		func(msg mq.TripFeedMessage) (TripDetail, bool, error) {
			detail, err := s.loadDetail(tripID, ownerUID)
			if err != nil {
				return TripDetail{}, false, err
			}
			return *detail, false, nil
		}, updates)
	if err != nil {
		cancel()
		return nil, apperr.Remote("Não foi possível carregar a viagem atualizada.", err)
	}

	return &TripDetailStream{updates: updates, cancel: cancel}, nil
}

func (s *Service) loadDetail(tripID uuid.UUID, ownerUID string) (*TripDetail, error) {
	trip, err := s.getOwnedTrip(tripID, ownerUID)
	if err != nil {
		return nil, err
	}
	return &TripDetail{
		Trip: *trip,
		Days: ItineraryDays(trip.Period),
	}, nil
}

// getOwnedTrip reads a trip and enforces the owner filter. A trip of
// another owner is indistinguishable from an absent one.
func (s *Service) getOwnedTrip(tripID uuid.UUID, ownerUID string) (*db.Trip, error) {
	trip, err := s.store.GetTrip(tripID)
	if err != nil {
		if errors.Is(err, db.ErrTripNotFound) {
			return nil, apperr.NotFound("Viagem não encontrada.")
		}
		return nil, apperr.Remote("Não foi possível carregar a viagem atualizada.", err)
	}
	if trip.OwnerUID != ownerUID {
		return nil, apperr.NotFound("Viagem não encontrada.")
	}
	return trip, nil
}

func (s *Service) feedQueues() []mq.TripFeedQueue {
	queues := make([]mq.TripFeedQueue, 0, mq.ActionCnt)
	for action := mq.Action(0); action < mq.ActionCnt; action++ {
		if q := s.feeds.GetTripFeedQueue(action); q != nil {
			queues = append(queues, q)
		}
	}
	return queues
}

func (s *Service) publish(action mq.Action, trip *db.Trip) {
	q := s.feeds.GetTripFeedQueue(action)
	if q == nil {
		return
	}
	msg := mq.TripFeedMessage{TripID: trip.ID, OwnerUID: trip.OwnerUID}
	if err := q.Publish(msg); err != nil {
		log.Printf("Failed to publish trip %s event for %s: %v", action, trip.ID, err)
	}
}

func requireSession(sess *session.Session) error {
	if sess == nil || sess.UID == "" {
		return apperr.Auth("Usuário não autenticado. Faça login novamente.")
	}
	return nil
}

func validatePeriod(period db.Period) error {
	if period.End.Before(period.Start) {
		return apperr.Validation("A data de check-out não pode ser antes do check-in.")
	}
	return nil
}
