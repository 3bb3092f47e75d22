// Package events publishes assignment and waitlist domain events to
// downstream collaborators.
package events

import (
	"context"
	"sync"
	"time"
)

// Type names a domain event.
type Type string

const (
	AssignmentCreated    Type = "assignment.created"
	AssignmentReleased   Type = "assignment.released"
	AssignmentReassigned Type = "assignment.reassigned"
	WaitlistPromoted     Type = "waitlist.promoted"
)

// Event is the JSON payload published for a committed change.
type Event struct {
	Type           Type      `json:"type"`
	ReservationID  string    `json:"reservation_id,omitempty"`
	AssignedSiteID string    `json:"assigned_site_id,omitempty"`
	CampsiteIDs    []string  `json:"campsite_ids,omitempty"`
	CustomerID     string    `json:"customer_id,omitempty"`
	WaitlistID     string    `json:"waitlist_id,omitempty"`
	Start          time.Time `json:"start,omitempty"`
	End            time.Time `json:"end,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher delivers events after the change they describe has committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards events.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns the recorded events of the given type.
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, event := range r.Events() {
		if event.Type == t {
			out = append(out, event)
		}
	}
	return out
}
