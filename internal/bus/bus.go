// Package bus provides event bus implementations for publishing fusion
// lifecycle events.
package bus

import (
	"context"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "fusion.completed").
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Topics for fusion lifecycle events.
const (
	// TopicFusionCompleted carries one event per completed fusion request.
	TopicFusionCompleted = "fusion.completed"

	// TopicBatchCompleted carries one event per completed batch request.
	TopicBatchCompleted = "fusion.batch.completed"

	// TopicValidationFailed carries events for fused outputs that failed
	// post-hoc validation.
	TopicValidationFailed = "fusion.validation.failed"
)

// FusionCompletedPayload is the payload of a fusion.completed event.
type FusionCompletedPayload struct {
	Method     string  `json:"method"`
	Lists      int     `json:"lists"`
	InputSize  int     `json:"input_size"`
	OutputSize int     `json:"output_size"`
	DurationMS float64 `json:"duration_ms"`
}
