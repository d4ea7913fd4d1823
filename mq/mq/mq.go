package mq

import "github.com/google/uuid"

// TopicProvider is implemented by messages that know which topics they
// belong on.
type TopicProvider interface {
	Topics() []string
}

// TripFeedQueue is one action's change feed. Subscribe registers a
// listener on a topic and returns the handle needed to tear it down;
// a leaked subscription keeps delivering updates nobody reads, so
// DeSubscribe is mandatory on the caller's way out.
type TripFeedQueue interface {
	GetAction() Action
	Publish(msg TripFeedMessage) error
	Subscribe(topic string) (uuid.UUID, <-chan TripFeedMessage, error)
	DeSubscribe(id uuid.UUID) error
}

// TripFeedQueueWrapper hands out the per-action queues of one backend.
type TripFeedQueueWrapper interface {
	GetTripFeedQueue(action Action) TripFeedQueue
}

// Mode selects the message queue backend at startup.
type Mode string

const (
	ModeGoChan    Mode = "go_chan"
	ModeRabbitMQ  Mode = "rabbitmq"
	ModeGCPPubSub Mode = "gcp_pub_sub"
)
