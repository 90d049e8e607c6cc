// Package events provides the in-process event bus used to decouple the
// chat, sessions and quotes modules from their side effects. It contains
// no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event published on the bus.
type Event interface {
	// EventName returns a unique identifier for the event type.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers an event to all handlers registered for its name.
	// Delivery is asynchronous; publish never blocks the caller.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers an event and waits for every handler.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under the name returned by
	// Event.EventName().
	Subscribe(eventName string, handler Handler)
}
