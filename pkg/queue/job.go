package queue

import "context"

// Job handles one message type pulled off the queue.
type Job interface {
	// Name uniquely identifies the job for registration.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes a single payload.
	Handle(ctx context.Context, payload interface{}) error
}
