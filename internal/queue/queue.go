// Package queue implements the Archiver's persistent retry queue: a
// durable, ordered sequence of entries scanned head-to-tail each tick,
// processing everything due and backing off on failure without blocking
// later entries.
package queue

import (
	"sync"
	"time"
)

// Kind discriminates a queue entry's payload variant.
type Kind string

const (
	KindFetchAndStoreSegments Kind = "fetch_and_store_segments"
	KindStoreEventMetadata    Kind = "store_event_metadata"
)

// Entry is one durable unit of archival work.
type Entry struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Camera     string    `json:"camera,omitempty"`
	Start      time.Time `json:"start,omitempty"`
	End        time.Time `json:"end,omitempty"`
	EventID    string    `json:"event_id,omitempty"`
	EventJSON  []byte    `json:"event_json,omitempty"`
	Attempts   int       `json:"attempts"`
	NextAttempt time.Time `json:"next_attempt"`
}

// Backoff computes the delay before the next attempt given the number of
// attempts so far, exponential with a configurable base and cap.
func Backoff(attempts int, base, maxDelay time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	d := base
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Queue holds the in-memory entry sequence; Save and Load persist it.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a new entry, due immediately.
func (q *Queue) Enqueue(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

// Due returns a snapshot of every entry whose next_attempt has passed, in
// insertion order, without removing them.
func (q *Queue) Due(now time.Time) []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Entry
	for _, e := range q.entries {
		if !e.NextAttempt.After(now) {
			due = append(due, e)
		}
	}
	return due
}

// Remove deletes the entry with the given id (called on success).
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return
		}
	}
}

// RecordFailure increments attempts and reschedules next_attempt using the
// given backoff schedule, leaving the entry in place.
func (q *Queue) RecordFailure(id string, base, maxDelay time.Duration, now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.entries {
		if q.entries[i].ID == id {
			q.entries[i].Attempts++
			q.entries[i].NextAttempt = now.Add(Backoff(q.entries[i].Attempts, base, maxDelay))
			return
		}
	}
}

// Len reports the number of entries currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// LenByKind reports the number of entries of the given kind.
func (q *Queue) LenByKind(kind Kind) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, e := range q.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current entries for persistence.
func (q *Queue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Restore replaces the queue's contents, used when loading persisted state at startup.
func (q *Queue) Restore(entries []Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = entries
}
