package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"traveleasy/mq/mq"
)

const (
	exchangeName = "trip_feed_exchange" // All trip change events go through this exchange
)

const (
	tripCreateRoutingKey = "trip.create"
	tripUpdateRoutingKey = "trip.update"
)

func getRoutingKey(action mq.Action) string {
	switch action {
	case mq.ActionCreate:
		return tripCreateRoutingKey
	case mq.ActionUpdate:
		return tripUpdateRoutingKey
	}
	return "" // Should not happen with valid inputs
}

// rabbitTripFeedQueue implements mq.TripFeedQueue for RabbitMQ. Every
// subscriber owns an exclusive auto-delete queue bound to the action's
// routing key, so each one receives every routed message, and filters
// by topic on the client side; messages for other topics are skipped.
type rabbitTripFeedQueue struct {
	action     mq.Action
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	routingKey string
	mu         sync.RWMutex // Protects the consumers map
	consumers  map[uuid.UUID]chan mq.TripFeedMessage
}

// NewRabbitTripFeedQueue creates a RabbitMQ-backed feed queue for one
// action. Subscriber queues are declared per Subscribe; only the
// exchange is set up here.
func NewRabbitTripFeedQueue(action mq.Action, conn *amqp091.Connection) (mq.TripFeedQueue, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := DeclareExchange(ch, exchangeName); err != nil {
		ch.Close()
		return nil, err
	}

	return &rabbitTripFeedQueue{
		action:     action,
		conn:       conn,
		channel:    ch,
		routingKey: getRoutingKey(action),
		consumers:  make(map[uuid.UUID]chan mq.TripFeedMessage),
	}, nil
}

// GetAction returns the action associated with this queue.
func (q *rabbitTripFeedQueue) GetAction() mq.Action {
	return q.action
}

// Publish sends a TripFeedMessage through the exchange.
func (q *rabbitTripFeedQueue) Publish(msg mq.TripFeedMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = q.channel.PublishWithContext(ctx,
		exchangeName, // exchange
		q.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe declares the subscriber's own bound queue, registers a
// topic-filtered consumer on it and returns the delivery channel.
func (q *rabbitTripFeedQueue) Subscribe(topic string) (uuid.UUID, <-chan mq.TripFeedMessage, error) {
	subscriberID := uuid.New()
	queueName := fmt.Sprintf("trip_feed_%s_%s", q.action.String(), subscriberID)

	if err := DeclareSubscriberQueue(q.channel, queueName, exchangeName, q.routingKey); err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to declare subscriber queue %s: %w", queueName, err)
	}

	msgs, err := q.channel.Consume(
		queueName,             // queue
		subscriberID.String(), // consumer
		true,                  // auto-ack
		true,                  // exclusive
		false,                 // no-local
		false,                 // no-wait
		nil,                   // args
	)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	outputChan := make(chan mq.TripFeedMessage)

	q.mu.Lock()
	q.consumers[subscriberID] = outputChan
	q.mu.Unlock()

	go func() {
		defer func() {
			q.mu.Lock()
			if ch, ok := q.consumers[subscriberID]; ok {
				close(ch)
				delete(q.consumers, subscriberID)
			}
			q.mu.Unlock()
		}()

		for d := range msgs {
			var msg mq.TripFeedMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Printf("Failed to unmarshal TripFeedMessage: %v", err)
				continue
			}
			if !topicMatch(msg.Topics(), topic) {
				continue
			}

			q.mu.RLock()
			if ch, ok := q.consumers[subscriberID]; ok {
				select {
				case ch <- msg:
					// Message sent to consumer
				case <-time.After(1 * time.Second): // Prevent blocking indefinitely
					log.Printf("Timeout sending message to trip feed consumer %s. Skipping.", subscriberID)
				}
			} else {
				// Consumer was unsubscribed while message was in flight
				q.mu.RUnlock()
				return
			}
			q.mu.RUnlock()
		}
	}()

	return subscriberID, outputChan, nil
}

// DeSubscribe removes a subscriber by its ID. Cancelling the consumer
// drops its exclusive queue; auto-delete cleans it up on the broker.
func (q *rabbitTripFeedQueue) DeSubscribe(subscriberID uuid.UUID) error {
	q.mu.Lock()
	ch, ok := q.consumers[subscriberID]
	if ok {
		delete(q.consumers, subscriberID)
		close(ch)
	}
	q.mu.Unlock()

	if !ok {
		return fmt.Errorf("consumer with ID %s not found for trip feed %s", subscriberID, q.action)
	}

	if err := q.channel.Cancel(subscriberID.String(), false); err != nil {
		log.Printf("Error cancelling consumer %s: %v", subscriberID, err)
	}
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

// rabbitTripFeedQueueWrapper implements mq.TripFeedQueueWrapper for RabbitMQ.
type rabbitTripFeedQueueWrapper struct {
	FeedMQArray [mq.ActionCnt]mq.TripFeedQueue
	conn        *amqp091.Connection // Keep a reference to the connection to close it later
}

// NewRabbitTripFeedQueueWrapper creates the per-action feed queues on
// one connection.
func NewRabbitTripFeedQueueWrapper(conn *amqp091.Connection) (mq.TripFeedQueueWrapper, error) {
	wrapper := &rabbitTripFeedQueueWrapper{
		conn: conn,
	}

	var err error
	wrapper.FeedMQArray[mq.ActionCreate], err = NewRabbitTripFeedQueue(mq.ActionCreate, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip create feed: %w", err)
	}
	wrapper.FeedMQArray[mq.ActionUpdate], err = NewRabbitTripFeedQueue(mq.ActionUpdate, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip update feed: %w", err)
	}

	return wrapper, nil
}

func (wrapper *rabbitTripFeedQueueWrapper) GetTripFeedQueue(action mq.Action) mq.TripFeedQueue {
	if action < 0 || action >= mq.ActionCnt {
		return nil
	}
	return wrapper.FeedMQArray[action]
}

// Close closes all channels and the RabbitMQ connection.
func (wrapper *rabbitTripFeedQueueWrapper) Close() {
	for _, q := range wrapper.FeedMQArray {
		if rmq, ok := q.(*rabbitTripFeedQueue); ok && rmq.channel != nil {
			rmq.channel.Close()
		}
	}
	if wrapper.conn != nil {
		wrapper.conn.Close()
	}
}
