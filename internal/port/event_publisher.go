package port

import "context"

type EventPublisher interface {
	// Publish sends the payload to the topic keyed by aggregate ID and
	// returns only after broker acknowledgement (or failure)
	Publish(ctx context.Context, topic, key string, payload []byte) error

	Close() error
}
