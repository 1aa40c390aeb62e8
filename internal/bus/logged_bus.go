package bus

import (
	"context"

	"github.com/rankfuse/rankfuse/internal/pkg/logger"
)

// LoggedBus wraps another Bus implementation and logs published events.
type LoggedBus struct {
	inner Bus
	log   *logger.Logger
}

// NewLoggedBus creates a new logged bus that wraps an inner bus.
func NewLoggedBus(inner Bus, log *logger.Logger) *LoggedBus {
	if log == nil {
		log = logger.Default()
	}
	return &LoggedBus{
		inner: inner,
		log:   log,
	}
}

// Publish logs the event and then delegates to the inner bus.
func (b *LoggedBus) Publish(ctx context.Context, topic string, event Event) error {
	err := b.inner.Publish(ctx, topic, event)
	if err != nil {
		b.log.Warn("Failed to publish event",
			"topic", topic,
			"event_id", event.ID,
			"error", err.Error(),
		)
		return err
	}

	b.log.Debug("Published event",
		"topic", topic,
		"event_id", event.ID,
		"type", event.Type,
	)
	return nil
}

// Subscribe delegates to the inner bus.
func (b *LoggedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close closes the inner bus.
func (b *LoggedBus) Close() error {
	return b.inner.Close()
}
