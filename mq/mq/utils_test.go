package mq_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"traveleasy/mq/goch"
	"traveleasy/mq/mq"
)

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

func TestTripFeedMessageTopics(t *testing.T) {
	tripID := uuid.New()
	msg := mq.TripFeedMessage{TripID: tripID, OwnerUID: "owner-1"}

	topics := msg.Topics()
	assert.Contains(t, topics, mq.OwnerTopic("owner-1"))
	assert.Contains(t, topics, mq.TripTopic(tripID))
	assert.Len(t, topics, 2)
}

func TestSubscribeFanInMergesQueues(t *testing.T) {
	createQ := goch.NewChannelTripFeedQueue(mq.ActionCreate, 5)
	updateQ := goch.NewChannelTripFeedQueue(mq.ActionUpdate, 5)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan uuid.UUID, 4)
	err := mq.SubscribeFanIn(ctx, mq.OwnerTopic("owner-1"),
		[]mq.TripFeedQueue{createQ, updateQ},
		func(msg mq.TripFeedMessage) (uuid.UUID, bool, error) {
			return msg.TripID, false, nil
		}, out)
	assert.NoError(t, err)

	first := mq.TripFeedMessage{TripID: uuid.New(), OwnerUID: "owner-1"}
	second := mq.TripFeedMessage{TripID: uuid.New(), OwnerUID: "owner-1"}
	assert.NoError(t, createQ.Publish(first))
	assert.NoError(t, updateQ.Publish(second))

	received := make(map[uuid.UUID]bool)
	for i := 0; i < 2; i++ {
		id, ok := receiveWithTimeout(t, out, time.Second)
		assert.True(t, ok)
		received[id] = true
	}
	assert.True(t, received[first.TripID])
	assert.True(t, received[second.TripID])
}

func TestSubscribeFanInSkipAndCancel(t *testing.T) {
	q := goch.NewChannelTripFeedQueue(mq.ActionCreate, 5)

	ctx, cancel := context.WithCancel(context.Background())

	keep := uuid.New()
	out := make(chan uuid.UUID, 4)
	err := mq.SubscribeFanIn(ctx, mq.OwnerTopic("owner-1"),
		[]mq.TripFeedQueue{q},
		func(msg mq.TripFeedMessage) (uuid.UUID, bool, error) {
			if msg.TripID != keep {
				return uuid.Nil, true, nil // skip
			}
			return msg.TripID, false, nil
		}, out)
	assert.NoError(t, err)

	assert.NoError(t, q.Publish(mq.TripFeedMessage{TripID: uuid.New(), OwnerUID: "owner-1"}))
	assert.NoError(t, q.Publish(mq.TripFeedMessage{TripID: keep, OwnerUID: "owner-1"}))

	// Only the kept message comes through
	id, ok := receiveWithTimeout(t, out, time.Second)
	assert.True(t, ok)
	assert.Equal(t, keep, id)

	// Cancellation closes the output stream
	cancel()
	_, ok = receiveWithTimeout(t, out, time.Second)
	assert.False(t, ok, "output stream must close on cancellation")
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "create", mq.ActionCreate.String())
	assert.Equal(t, "update", mq.ActionUpdate.String())
}
