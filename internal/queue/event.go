// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer pair that moves them.
package queue

import "time"

// QueueName is the durable queue carrying every domain event.
const QueueName = "advocate.events"

// Event types.
const (
    BookingCreated       = "booking.created"
    BookingStatusChanged = "booking.status_changed"
    ReviewSubmitted      = "review.submitted"
    AdvocateActivated    = "advocate.activated"
)

// Event is published after a booking, review or activation change has been
// committed.  It carries enough for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type Event struct {
    Type       string `json:"type"`
    BookingID  uint64 `json:"booking_id,omitempty"`
    ClientID   uint64 `json:"client_id,omitempty"`
    AdvocateID uint64 `json:"advocate_id"`
    Status     string `json:"status,omitempty"`
    Rating     string `json:"rating,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// NewEvent stamps an event of the given type with the current UTC time.
func NewEvent(typ string) Event {
    return Event{Type: typ, OccurredAt: time.Now().UTC().Format(time.RFC3339)}
}
