// Package goch is the in-process TripFeedQueue backend: a topic-keyed
// fan-out over Go channels, the default for dev mode and tests.
package goch

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"traveleasy/mq/mq"
)

type consumer struct {
	topic   string
	channel chan mq.TripFeedMessage
}

// ChannelTripFeedQueue implements mq.TripFeedQueue using Go channels.
type ChannelTripFeedQueue struct {
	action     mq.Action
	bufferSize int

	mu        sync.RWMutex
	consumers map[uuid.UUID]*consumer
}

// NewChannelTripFeedQueue creates a queue whose subscriber channels
// hold up to bufferSize undelivered messages. A full subscriber drops
// the message rather than blocking the publisher.
func NewChannelTripFeedQueue(action mq.Action, bufferSize int) *ChannelTripFeedQueue {
	return &ChannelTripFeedQueue{
		action:     action,
		bufferSize: bufferSize,
		consumers:  make(map[uuid.UUID]*consumer),
	}
}

// GetAction returns the action associated with this queue.
func (q *ChannelTripFeedQueue) GetAction() mq.Action {
	return q.action
}

// Publish delivers msg to every subscriber of the topics the message
// belongs on, in subscription-channel order.
func (q *ChannelTripFeedQueue) Publish(msg mq.TripFeedMessage) error {
	topics := msg.Topics()

	q.mu.RLock()
	defer q.mu.RUnlock()

	for id, c := range q.consumers {
		if !topicMatch(topics, c.topic) {
			continue
		}
		select {
		case c.channel <- msg:
		default:
			log.Printf("Trip feed subscriber %s is full. Dropping message.", id)
		}
	}
	return nil
}

// Subscribe registers a listener on topic and returns its teardown id
// along with the delivery channel.
func (q *ChannelTripFeedQueue) Subscribe(topic string) (uuid.UUID, <-chan mq.TripFeedMessage, error) {
	id := uuid.New()
	c := &consumer{
		topic:   topic,
		channel: make(chan mq.TripFeedMessage, q.bufferSize),
	}

	q.mu.Lock()
	q.consumers[id] = c
	q.mu.Unlock()

	return id, c.channel, nil
}

// DeSubscribe removes a subscriber and closes its delivery channel.
func (q *ChannelTripFeedQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	c, ok := q.consumers[id]
	if !ok {
		return fmt.Errorf("consumer with ID %s not found", id)
	}
	delete(q.consumers, id)
	close(c.channel)
	return nil
}

func topicMatch(topics []string, topic string) bool {
	for _, t := range topics {
		if t == topic {
			return true
		}
	}
	return false
}

// GoChanTripFeedQueueWrapper implements mq.TripFeedQueueWrapper over
// the in-process queues.
type GoChanTripFeedQueueWrapper struct {
	FeedMQArray [mq.ActionCnt]mq.TripFeedQueue
}

// NewGoChanTripFeedQueueWrapper creates a wrapper with one queue per
// action.
func NewGoChanTripFeedQueueWrapper() mq.TripFeedQueueWrapper {
	wrapper := GoChanTripFeedQueueWrapper{}
	wrapper.FeedMQArray[mq.ActionCreate] = NewChannelTripFeedQueue(mq.ActionCreate, 5)
	wrapper.FeedMQArray[mq.ActionUpdate] = NewChannelTripFeedQueue(mq.ActionUpdate, 5)
	return &wrapper
}

func (wrapper *GoChanTripFeedQueueWrapper) GetTripFeedQueue(action mq.Action) mq.TripFeedQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return wrapper.FeedMQArray[action]
}
