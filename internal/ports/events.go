package ports

import "context"

// EventPublisher fans workflow events out to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte) error
}
