package trip_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"traveleasy/apperr"
	db "traveleasy/db/db"
	"traveleasy/db/mem"
	"traveleasy/mq/goch"
	"traveleasy/mq/mq"
	"traveleasy/session"
	"traveleasy/trip"
)

func setupService() (*trip.Service, db.TripDBWrapper, mq.TripFeedQueueWrapper) {
	store := mem.NewInMemoryTripDBWrapper()
	feeds := goch.NewGoChanTripFeedQueueWrapper()
	return trip.NewService(store, feeds), store, feeds
}

func testSession(uid string) *session.Session {
	return &session.Session{Token: uuid.NewString(), UID: uid, DisplayName: "Ana Lima", Email: "ana@example.com"}
}

func period(startDay, endDay int) db.Period {
	return db.Period{
		Start: time.Date(2024, time.June, startDay, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, time.June, endDay, 0, 0, 0, 0, time.UTC),
	}
}

// receiveWithTimeout reads one value from ch or fails the wait.
func receiveWithTimeout[T any](tb testing.TB, ch <-chan T, timeout time.Duration) (T, bool) {
	tb.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

func TestCreateTripValidation(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	// Test 1: No session
	_, err := svc.CreateTrip(ctx, nil, "Paris", "place-1", "100,00", period(1, 3))
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	// Test 2: Missing place identifier means the city was typed, not picked
	_, err = svc.CreateTrip(ctx, sess, "Paris", "", "100,00", period(1, 3))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.EqualError(t, err, "Por favor, selecione uma cidade válida.")

	// Test 3: Unparseable budget
	_, err = svc.CreateTrip(ctx, sess, "Paris", "place-1", "abc", period(1, 3))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.EqualError(t, err, "Por favor, insira um orçamento válido.")

	// Test 4: Check-out before check-in
	_, err = svc.CreateTrip(ctx, sess, "Paris", "place-1", "100,00", period(3, 1))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.EqualError(t, err, "A data de check-out não pode ser antes do check-in.")

	// Test 5: Single-day trip is allowed
	created, err := svc.CreateTrip(ctx, sess, "Paris", "place-1", "100,00", period(2, 2))
	assert.NoError(t, err)
	assert.NotNil(t, created)
}

func TestCreateTripPersistsAndPublishes(t *testing.T) {
	svc, store, feeds := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	createQueue := feeds.GetTripFeedQueue(mq.ActionCreate)
	subID, msgs, err := createQueue.Subscribe(mq.OwnerTopic(sess.UID))
	assert.NoError(t, err)
	defer createQueue.DeSubscribe(subID)

	created, err := svc.CreateTrip(ctx, sess, "Lisboa", "place-lis", "1.234,56", period(1, 3))
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.InDelta(t, 1234.56, created.Budget, 0.0001)

	stored, err := store.GetTrip(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, sess.UID, stored.OwnerUID)
	assert.Equal(t, "Lisboa", stored.Destination)

	msg, ok := receiveWithTimeout(t, msgs, time.Second)
	assert.True(t, ok, "expected a create feed message")
	assert.Equal(t, created.ID, msg.TripID)
	assert.Equal(t, sess.UID, msg.OwnerUID)
}

func TestUpdateTrip(t *testing.T) {
	svc, store, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	created, err := svc.CreateTrip(ctx, sess, "Roma", "place-rom", "500,00", period(1, 5))
	assert.NoError(t, err)

	// Test 1: Budget update is persisted
	newBudget := "750,00"
	updated, err := svc.UpdateTrip(ctx, sess, created.ID, &newBudget, nil)
	assert.NoError(t, err)
	assert.InDelta(t, 750.0, updated.Budget, 0.0001)
	assert.Equal(t, "Roma", updated.Destination)

	stored, err := store.GetTrip(created.ID)
	assert.NoError(t, err)
	assert.InDelta(t, 750.0, stored.Budget, 0.0001)

	// Test 2: Period update is persisted
	newPeriod := period(2, 4)
	updated, err = svc.UpdateTrip(ctx, sess, created.ID, nil, &newPeriod)
	assert.NoError(t, err)
	assert.Equal(t, newPeriod, updated.Period)

	// Test 3: Another user cannot see or edit the trip
	other := testSession("user-2")
	_, err = svc.UpdateTrip(ctx, other, created.ID, &newBudget, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Test 4: Unknown trip
	_, err = svc.UpdateTrip(ctx, sess, uuid.New(), &newBudget, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdateTripNoOpPublishesNothing(t *testing.T) {
	svc, _, feeds := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	created, err := svc.CreateTrip(ctx, sess, "Porto", "place-por", "300,00", period(1, 2))
	assert.NoError(t, err)

	updateQueue := feeds.GetTripFeedQueue(mq.ActionUpdate)
	subID, msgs, err := updateQueue.Subscribe(mq.TripTopic(created.ID))
	assert.NoError(t, err)
	defer updateQueue.DeSubscribe(subID)

	// Writing the same budget back changes nothing
	sameBudget := "300,00"
	_, err = svc.UpdateTrip(ctx, sess, created.ID, &sameBudget, nil)
	assert.NoError(t, err)

	_, ok := receiveWithTimeout(t, msgs, 100*time.Millisecond)
	assert.False(t, ok, "a no-op update must not publish a feed event")

	// A real change does publish
	changed := "301,00"
	_, err = svc.UpdateTrip(ctx, sess, created.ID, &changed, nil)
	assert.NoError(t, err)

	msg, ok := receiveWithTimeout(t, msgs, time.Second)
	assert.True(t, ok, "expected an update feed message")
	assert.Equal(t, created.ID, msg.TripID)
}

func TestAppendExpenses(t *testing.T) {
	svc, store, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	created, err := svc.CreateTrip(ctx, sess, "Recife", "place-rec", "900,00", period(1, 3))
	assert.NoError(t, err)
	dayKey := "2024-06-02"

	// Test 1: Empty batch
	err = svc.AppendExpenses(ctx, sess, created.ID, dayKey, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.EqualError(t, err, "Nenhuma despesa foi adicionada.")

	// Test 2: Blank name
	err = svc.AppendExpenses(ctx, sess, created.ID, dayKey, []db.Expense{{Name: "  ", Amount: 10}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.EqualError(t, err, "Por favor, preencha todos os campos.")

	// Test 3: Negative amount
	err = svc.AppendExpenses(ctx, sess, created.ID, dayKey, []db.Expense{{Name: "Táxi", Amount: -5}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// Test 4: Malformed day key
	err = svc.AppendExpenses(ctx, sess, created.ID, "02/06/2024", []db.Expense{{Name: "Táxi", Amount: 5}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	// Test 5: Appends accumulate and never overwrite
	err = svc.AppendExpenses(ctx, sess, created.ID, dayKey, []db.Expense{{Name: "Almoço", Amount: 45.5}})
	assert.NoError(t, err)
	err = svc.AppendExpenses(ctx, sess, created.ID, dayKey, []db.Expense{
		{Name: "Museu", Amount: 20},
		{Name: "Almoço", Amount: 45.5}, // duplicates by value are kept
	})
	assert.NoError(t, err)

	stored, err := store.GetTrip(created.ID)
	assert.NoError(t, err)
	assert.Len(t, stored.Days[dayKey], 3)
	assert.Equal(t, "Almoço", stored.Days[dayKey][0].Name)
	assert.Equal(t, "Museu", stored.Days[dayKey][1].Name)

	// Test 6: Another user's append is rejected as not found
	err = svc.AppendExpenses(ctx, testSession("user-2"), created.ID, dayKey, []db.Expense{{Name: "Táxi", Amount: 5}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListTripsStream(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	_, err := svc.CreateTrip(ctx, sess, "Manaus", "place-man", "100,00", period(1, 2))
	assert.NoError(t, err)
	// Another owner's trip must never show up
	_, err = svc.CreateTrip(ctx, testSession("user-2"), "Belém", "place-bel", "100,00", period(1, 2))
	assert.NoError(t, err)

	stream, err := svc.ListTrips(ctx, sess)
	assert.NoError(t, err)
	defer stream.Close()

	// Initial snapshot
	trips, ok := receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.True(t, ok)
	assert.Len(t, trips, 1)
	assert.Equal(t, "Manaus", trips[0].Destination)

	// A new trip pushes a refreshed snapshot
	_, err = svc.CreateTrip(ctx, sess, "Natal", "place-nat", "200,00", period(3, 4))
	assert.NoError(t, err)

	trips, ok = receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.True(t, ok)
	assert.Len(t, trips, 2)
	assert.Equal(t, "Natal", trips[1].Destination)
}

func TestListTripsStreamClose(t *testing.T) {
	svc, _, _ := setupService()
	sess := testSession("user-1")

	stream, err := svc.ListTrips(context.Background(), sess)
	assert.NoError(t, err)

	// Drain the initial snapshot, then close
	_, ok := receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.True(t, ok)
	stream.Close()

	_, ok = receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.False(t, ok, "Updates must be closed after Close")
}

func TestWatchTrip(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	created, err := svc.CreateTrip(ctx, sess, "Salvador", "place-sal", "400,00", period(10, 12))
	assert.NoError(t, err)

	stream, err := svc.WatchTrip(ctx, sess, created.ID)
	assert.NoError(t, err)
	defer stream.Close()

	// Initial detail carries the derived itinerary days
	detail, ok := receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.True(t, ok)
	assert.Equal(t, created.ID, detail.Trip.ID)
	assert.Len(t, detail.Days, 3)

	// An expense append wakes the watcher with fresh state
	err = svc.AppendExpenses(ctx, sess, created.ID, "2024-06-11", []db.Expense{{Name: "Jantar", Amount: 80}})
	assert.NoError(t, err)

	detail, ok = receiveWithTimeout(t, stream.Updates(), time.Second)
	assert.True(t, ok)
	assert.Len(t, detail.Trip.Days["2024-06-11"], 1)

	// Watching someone else's trip is not found
	_, err = svc.WatchTrip(ctx, testSession("user-2"), created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestTripsSnapshot(t *testing.T) {
	svc, _, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	_, err := svc.Trips(ctx, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	trips, err := svc.Trips(ctx, sess)
	assert.NoError(t, err)
	assert.Empty(t, trips)

	created, err := svc.CreateTrip(ctx, sess, "Curitiba", "place-cur", "150,00", period(1, 2))
	assert.NoError(t, err)

	trips, err = svc.Trips(ctx, sess)
	assert.NoError(t, err)
	assert.Len(t, trips, 1)

	detail, err := svc.TripByID(ctx, sess, created.ID, nil)
	assert.NoError(t, err)
	assert.Equal(t, "Curitiba", detail.Trip.Destination)
	assert.Len(t, detail.Days, 2)
}

func TestTripByIDThroughLoader(t *testing.T) {
	svc, store, _ := setupService()
	ctx := context.Background()
	sess := testSession("user-1")

	created, err := svc.CreateTrip(ctx, sess, "Ouro Preto", "place-op", "600,00", period(1, 3))
	assert.NoError(t, err)

	loader := db.NewTripDataLoader(store)

	// The detail read goes through the batched loader
	detail, err := svc.TripByID(ctx, sess, created.ID, loader)
	assert.NoError(t, err)
	assert.Equal(t, "Ouro Preto", detail.Trip.Destination)
	assert.Len(t, detail.Days, 3)

	// Ownership is enforced on the loaded document too
	_, err = svc.TripByID(ctx, testSession("user-2"), created.ID, loader)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// An absent trip is not found, not a panic
	_, err = svc.TripByID(ctx, sess, uuid.New(), loader)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
