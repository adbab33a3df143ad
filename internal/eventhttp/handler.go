// Package eventhttp exposes the Event Processor's single external
// endpoint: accepting triggers and merging them into durable event state.
package eventhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"satori/internal/event"
	"satori/internal/trigger"
)

// Merger is the event-set surface the handler needs.
type Merger interface {
	Merge(r trigger.Resolved) *event.Event
}

// Recorder is the metrics surface the handler updates.
type Recorder interface {
	IncTriggers()
	IncTriggersDropped()
}

// Handler serves POST /trigger.
type Handler struct {
	set       Merger
	fallback  trigger.Template
	templates map[string]trigger.Template
	log       *slog.Logger
	metrics   Recorder
}

// NewHandler returns a Handler that resolves triggers against fallback and
// templates before merging them into set.
func NewHandler(set Merger, fallback trigger.Template, templates map[string]trigger.Template, log *slog.Logger, metrics Recorder) *Handler {
	return &Handler{set: set, fallback: fallback, templates: templates, log: log, metrics: metrics}
}

// Trigger handles POST /trigger.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var t trigger.Trigger
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		h.log.Debug("invalid trigger body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resolved, ok := trigger.Resolve(t, h.fallback, h.templates, h.log)
	if !ok {
		if h.metrics != nil {
			h.metrics.IncTriggersDropped()
		}
		w.WriteHeader(http.StatusOK) // dropping is non-fatal, not a client error
		return
	}

	h.set.Merge(resolved)

	if h.metrics != nil {
		h.metrics.IncTriggers()
	}
	w.WriteHeader(http.StatusOK)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
