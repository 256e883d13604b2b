// Package notify carries lifecycle events from the services to the admin
// notification stream and, optionally, to a RabbitMQ exchange. Delivery is
// best-effort: a slow or failing sink never reaches back into the caller.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventReviewCreated      = "review.created"
	EventUserRegistered     = "user.registered"
	EventMessageCreated     = "message.created"
)

type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEvent(eventType, title, message string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Sink receives events from the Emitter worker.
type Sink interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

// Publisher is what the services depend on.
type Publisher interface {
	Emit(event Event)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Emit(Event) {}
