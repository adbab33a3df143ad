// Package trigger resolves an incoming external trigger against its named
// template (or the configured fallback) into the concrete tuple the event
// state machine coalesces on.
package trigger

import (
	"log/slog"
	"time"
)

// Trigger is the external request body accepted by POST /trigger.
type Trigger struct {
	ID        string     `json:"id,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Cameras   []string   `json:"cameras,omitempty"`
	PreSecs   *int       `json:"pre,omitempty"`
	PostSecs  *int       `json:"post,omitempty"`
}

// Template carries named defaults applied when resolving a trigger.
type Template struct {
	Cameras  []string
	Reason   string
	PreSecs  int
	PostSecs int
}

// Resolved is the concrete tuple produced by Resolve, ready to feed into the
// event coalescing state machine.
type Resolved struct {
	Cameras   []string
	Reason    string
	Pre       time.Duration
	Post      time.Duration
	Timestamp time.Time
}

// Resolve merges t against its base template: if t.ID names an entry in
// templates that template is the base, otherwise fallback is. Fields present
// on t override the base. Resolve returns ok=false when, after merging,
// cameras is empty — callers should drop the trigger with a warning rather
// than treat this as an error.
func Resolve(t Trigger, fallback Template, templates map[string]Template, log *slog.Logger) (Resolved, bool) {
	base := fallback
	if t.ID != "" {
		if named, found := templates[t.ID]; found {
			base = named
		}
	}

	cameras := base.Cameras
	if len(t.Cameras) > 0 {
		cameras = t.Cameras
	}

	if len(cameras) == 0 {
		if log != nil {
			log.Warn("dropping trigger with no resolvable cameras", slog.String("id", t.ID))
		}
		return Resolved{}, false
	}

	reason := base.Reason
	if t.Reason != "" {
		reason = t.Reason
	}

	pre := base.PreSecs
	if t.PreSecs != nil {
		pre = *t.PreSecs
	}

	post := base.PostSecs
	if t.PostSecs != nil {
		post = *t.PostSecs
	}

	timestamp := time.Now().UTC()
	if t.Timestamp != nil {
		timestamp = t.Timestamp.UTC()
	}

	return Resolved{
		Cameras:   cameras,
		Reason:    reason,
		Pre:       time.Duration(pre) * time.Second,
		Post:      time.Duration(post) * time.Second,
		Timestamp: timestamp,
	}, true
}
