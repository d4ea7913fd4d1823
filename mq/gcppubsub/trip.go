package gcppubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	"traveleasy/mq/mq"
)

const (
	ownerTopicAttribute = "ownerTopic"
	tripTopicAttribute  = "tripTopic"
)

// subscriptionInfo holds details about an active Pub/Sub subscription.
type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// pubSubTripFeedQueue implements mq.TripFeedQueue on one GCP Pub/Sub
// topic per action. Each Subscribe creates a server-side filtered
// subscription matching the requested topic on either the owner or
// the trip attribute, so a subscriber only ever receives its own feed.
type pubSubTripFeedQueue struct {
	action mq.Action
	client *pubsub.Client
	topic  *pubsub.Topic

	activeSubscriptions map[uuid.UUID]*subscriptionInfo
	subscriptionsMutex  sync.Mutex
	ctx                 context.Context
}

// NewPubSubTripFeedQueue creates the feed queue for one action,
// creating the underlying Pub/Sub topic when it does not exist yet.
func NewPubSubTripFeedQueue(ctx context.Context, client *pubsub.Client, action mq.Action) (mq.TripFeedQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("GCP Pub/Sub client is nil")
	}

	topicID := fmt.Sprintf("trip-feed-%s", action.String())
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		log.Printf("Created Pub/Sub topic: %s", topicID)
	}

	return &pubSubTripFeedQueue{
		action:              action,
		client:              client,
		topic:               topic,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
		ctx:                 ctx,
	}, nil
}

// GetAction returns the action associated with this queue.
func (q *pubSubTripFeedQueue) GetAction() mq.Action {
	return q.action
}

// Publish sends the message with its owner and trip topics as
// attributes so filtered subscriptions can match either.
func (q *pubSubTripFeedQueue) Publish(msg mq.TripFeedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal TripFeedMessage: %w", err)
	}

	pubsubMsg := &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			ownerTopicAttribute: mq.OwnerTopic(msg.OwnerUID),
			tripTopicAttribute:  mq.TripTopic(msg.TripID),
		},
	}

	result := q.topic.Publish(q.ctx, pubsubMsg)
	if _, err = result.Get(q.ctx); err != nil {
		return fmt.Errorf("failed to publish TripFeedMessage to topic %s: %w", q.topic.ID(), err)
	}
	return nil
}

// Subscribe creates a new filtered subscription on GCP and starts
// listening for messages.
func (q *pubSubTripFeedQueue) Subscribe(topic string) (uuid.UUID, <-chan mq.TripFeedMessage, error) {
	subscriptionID := uuid.New() // Internal ID for tracking

	gcpSubName := fmt.Sprintf("sub-trip-feed-%s-%s", q.action.String(), subscriptionID.String())

	config := pubsub.SubscriptionConfig{
		Topic: q.topic,
		Filter: fmt.Sprintf("attributes.%s = %q OR attributes.%s = %q",
			ownerTopicAttribute, topic, tripTopicAttribute, topic),
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	}

	gcpSub, err := q.client.CreateSubscription(q.ctx, gcpSubName, config)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s: %w", gcpSubName, err)
	}

	msgChan := make(chan mq.TripFeedMessage, 5)
	receiveCtx, cancel := context.WithCancel(q.ctx)

	q.subscriptionsMutex.Lock()
	q.activeSubscriptions[subscriptionID] = &subscriptionInfo{
		gcpSubscription: gcpSub,
		cancel:          cancel,
	}
	q.subscriptionsMutex.Unlock()

	go func() {
		// Automatically clean up when the goroutine exits.
		defer func() {
			q.subscriptionsMutex.Lock()
			delete(q.activeSubscriptions, subscriptionID)
			q.subscriptionsMutex.Unlock()

			// Delete the subscription from GCP to prevent resource leaks.
			if deleteErr := gcpSub.Delete(context.Background()); deleteErr != nil {
				log.Printf("Error deleting GCP subscription %s: %v", gcpSub.ID(), deleteErr)
			}
			close(msgChan)
		}()

		// Receive blocks until the context is cancelled.
		err := gcpSub.Receive(receiveCtx, func(ctx context.Context, pubsubMsg *pubsub.Message) {
			pubsubMsg.Ack()

			var msg mq.TripFeedMessage
			if err := json.Unmarshal(pubsubMsg.Data, &msg); err != nil {
				log.Printf("Error unmarshaling TripFeedMessage for %s: %v. Body: %s", subscriptionID, err, string(pubsubMsg.Data))
				return
			}

			select {
			case msgChan <- msg:
			case <-time.After(2 * time.Second):
				log.Printf("Timeout sending TripFeedMessage to msgChan for %s.", subscriptionID)
			case <-receiveCtx.Done(): // Check if we were cancelled while trying to send.
				return
			}
		})

		if err != nil && err != context.Canceled {
			log.Printf("Error in Receive loop for subscription %s: %v", subscriptionID, err)
		}
	}()

	return subscriptionID, msgChan, nil
}

// DeSubscribe stops the message receiver and deletes the subscription from GCP.
func (q *pubSubTripFeedQueue) DeSubscribe(id uuid.UUID) error {
	q.subscriptionsMutex.Lock()
	info, ok := q.activeSubscriptions[id]
	if ok {
		// It's removed from the map inside the goroutine's defer block.
		// Here we just trigger the cancellation.
		info.cancel()
	}
	q.subscriptionsMutex.Unlock()

	if !ok {
		return fmt.Errorf("subscription ID %s not found for trip feed %s", id, q.action.String())
	}
	return nil
}

// Close gracefully shuts down all active subscriptions for this queue.
func (q *pubSubTripFeedQueue) Close() {
	q.subscriptionsMutex.Lock()
	defer q.subscriptionsMutex.Unlock()

	for _, info := range q.activeSubscriptions {
		info.cancel()
	}
}

// pubSubTripFeedQueueWrapper implements mq.TripFeedQueueWrapper for
// GCP Pub/Sub.
type pubSubTripFeedQueueWrapper struct {
	FeedMQArray [mq.ActionCnt]mq.TripFeedQueue
}

// NewPubSubTripFeedQueueWrapper creates the per-action feed queues on
// one Pub/Sub client.
func NewPubSubTripFeedQueueWrapper(ctx context.Context, client *pubsub.Client) (mq.TripFeedQueueWrapper, error) {
	wrapper := &pubSubTripFeedQueueWrapper{}

	var err error
	wrapper.FeedMQArray[mq.ActionCreate], err = NewPubSubTripFeedQueue(ctx, client, mq.ActionCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip create feed: %w", err)
	}
	wrapper.FeedMQArray[mq.ActionUpdate], err = NewPubSubTripFeedQueue(ctx, client, mq.ActionUpdate)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip update feed: %w", err)
	}

	return wrapper, nil
}

func (wrapper *pubSubTripFeedQueueWrapper) GetTripFeedQueue(action mq.Action) mq.TripFeedQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return wrapper.FeedMQArray[action]
}
