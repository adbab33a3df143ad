// Package event implements the Event Processor's coalescing state machine:
// merging resolved triggers into durable, in-progress archival intents and
// dispatching archive commands once each event's post-roll has elapsed.
package event

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"satori/internal/trigger"
)

// Event is a durable, in-progress archival intent coalesced from one or
// more triggers sharing the same (cameras-set, reason) identity.
type Event struct {
	ID          string        `json:"id"`
	Cameras     []string      `json:"cameras"`
	Reason      string        `json:"reason"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	TTLDeadline time.Time     `json:"ttl_deadline"`
	Dispatched  bool          `json:"dispatched"`
}

// Set holds the open event population and the coalescing + tick logic. It
// is the sole writer of its own state; callers serialize through its
// exported methods.
type Set struct {
	mu      sync.Mutex
	events  map[string]*Event
	eventTTL time.Duration
}

// NewSet returns an empty Set that extends each event's ttl_deadline by eventTTL.
func NewSet(eventTTL time.Duration) *Set {
	return &Set{events: make(map[string]*Event), eventTTL: eventTTL}
}

// Merge applies a resolved trigger to the event set: extending a matching
// OPEN event, or creating a new one. The identity key is (cameras-set, reason).
func (s *Set) Merge(r trigger.Resolved) *Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := r.Timestamp.Add(-r.Pre)
	end := r.Timestamp.Add(r.Post)
	key := coalesceKey(r.Cameras, r.Reason)

	for _, e := range s.events {
		if coalesceKey(e.Cameras, e.Reason) != key {
			continue
		}
		if e.TTLDeadline.Before(time.Now()) {
			continue // EXPIRED, not eligible for coalescing
		}

		if start.Before(e.Start) {
			e.Start = start
		}
		if end.After(e.End) {
			e.End = end
			e.TTLDeadline = e.End.Add(s.eventTTL)
			e.Dispatched = false
		}
		return e
	}

	e := &Event{
		ID:          uuid.NewString(),
		Cameras:     r.Cameras,
		Reason:      r.Reason,
		Start:       start,
		End:         end,
		TTLDeadline: end.Add(s.eventTTL),
	}
	s.events[e.ID] = e
	return e
}

// coalesceKey collapses a camera set + reason into an order-independent identity.
func coalesceKey(cameras []string, reason string) string {
	sorted := append([]string(nil), cameras...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	key := reason + "|"
	for _, c := range sorted {
		key += c + ","
	}
	return key
}

// DueForDispatch returns every event whose end has passed and which has not
// yet been dispatched, without mutating state. The ttl_deadline is not
// checked here; expired events are removed by ExpireOlderThan.
func (s *Set) DueForDispatch() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var due []*Event
	for _, e := range s.events {
		if !e.Dispatched && e.End.Before(now) {
			due = append(due, e)
		}
	}
	return due
}

// MarkDispatched flags an event as dispatched after its archive commands
// have been published.
func (s *Set) MarkDispatched(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[id]; ok {
		e.Dispatched = true
	}
}

// ExpireOlderThan removes every event whose ttl_deadline has passed.
func (s *Set) ExpireOlderThan(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.events {
		if e.TTLDeadline.Before(now) || e.TTLDeadline.Equal(now) {
			delete(s.events, id)
		}
	}
}

// Snapshot returns a deep-enough copy of the current events for persistence.
func (s *Set) Snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, *e)
	}
	return out
}

// Restore replaces the set's contents, used when loading persisted state at startup.
func (s *Set) Restore(events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = make(map[string]*Event, len(events))
	for i := range events {
		e := events[i]
		s.events[e.ID] = &e
	}
}

// Len reports the number of currently open events.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
