package mq

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// SubscribeFanIn subscribes to every queue on the same topic and pumps
// transformed messages into outputStream until ctx is cancelled.
// transformFunc may skip a message (second return true) or fail for
// just that message (error logged, pump continues). On cancellation
// every subscription is released and outputStream is closed, so the
// consumer's range loop terminates with the stream.
//
// Messages from one queue keep the order the queue emitted them;
// interleaving across queues is unspecified.
func SubscribeFanIn[O any](
	ctx context.Context,
	topic string,
	queues []TripFeedQueue,
	transformFunc func(msg TripFeedMessage) (O, bool, error),
	outputStream chan<- O,
) error {
	type subscription struct {
		queue TripFeedQueue
		id    uuid.UUID
	}

	merged := make(chan TripFeedMessage)
	subs := make([]subscription, 0, len(queues))

	for _, q := range queues {
		id, ch, err := q.Subscribe(topic)
		if err != nil {
			for _, s := range subs {
				_ = s.queue.DeSubscribe(s.id)
			}
			return err
		}
		subs = append(subs, subscription{queue: q, id: id})

		go func(ch <-chan TripFeedMessage) {
			for msg := range ch {
				select {
				case merged <- msg:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}

	go func() {
		defer func() {
			for _, s := range subs {
				if err := s.queue.DeSubscribe(s.id); err != nil {
					log.Printf("Error de-subscribing %s: %v", s.id, err)
				}
			}
			close(outputStream)
		}()

		for {
			select {
			case msg := <-merged:
				output, skip, err := transformFunc(msg)
				if err != nil {
					log.Printf("Error transforming feed message for topic %s: %v. Skipping.", topic, err)
					continue
				}
				if skip {
					continue
				}

				select {
				case outputStream <- output:
				case <-ctx.Done():
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}
