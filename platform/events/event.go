// Package events is an in-process publish/subscribe bus. Domain packages
// define the concrete events; this package only moves them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every published event.
type Event interface {
	// EventName is the subscription key, e.g. "leads.lead.created".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the identity and time of an event. Embed it.
type BaseEvent struct {
	EventID   uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"occurredAt"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh event id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{EventID: uuid.New(), Timestamp: time.Now().UTC()}
}

// Handler processes one event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error { return f(ctx, event) }

// Publisher is the side of the bus domain services depend on.
type Publisher interface {
	// Publish dispatches asynchronously; handler failures never reach the caller.
	Publish(ctx context.Context, event Event)
}

// Bus publishes events and registers handlers by event name.
type Bus interface {
	Publisher
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
