// Package events publishes marketplace domain events to a message broker.
package events

import (
	"context"
	"time"
)

type Type string

const (
	OrderPlaced         Type = "order.placed"
	OrderStatusChanged  Type = "order.status_changed"
	VendorCreated       Type = "vendor.created"
	VendorStatusChanged Type = "vendor.status_changed"
	ReviewSubmitted     Type = "review.submitted"
)

// Event is the envelope written to the broker. Key partitions related events together.
type Event struct {
	Type       Type        `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

func New(t Type, key string, payload interface{}) Event {
	return Event{Type: t, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher hands events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Subscriber consumes raw event payloads until ctx is cancelled.
type Subscriber interface {
	Consume(ctx context.Context, groupID string, handler func(ctx context.Context, payload []byte) error) error
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event. Used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }
