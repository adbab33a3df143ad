package metrics

import "github.com/prometheus/client_golang/prometheus"

// EventProcessor holds the metrics exposed by the Event Processor process.
type EventProcessor struct {
	*Base

	triggersTotal           prometheus.Counter
	triggersDroppedTotal    prometheus.Counter
	openEvents              prometheus.Gauge
	archiveCommandsTotal    prometheus.Counter
	eventFileWriteFailTotal prometheus.Counter
}

// NewEventProcessor constructs and registers the Event Processor's metrics.
func NewEventProcessor() *EventProcessor {
	base := newBase("event_processor")

	triggersTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "event_processor",
		Name:      "triggers_total",
		Help:      "Total number of triggers accepted",
	})
	triggersDroppedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "event_processor",
		Name:      "triggers_dropped_total",
		Help:      "Total number of triggers dropped because resolution yielded no cameras",
	})
	openEvents := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "event_processor",
		Name:      "open_events",
		Help:      "Number of events currently open (not yet expired)",
	})
	archiveCommandsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "event_processor",
		Name:      "archive_commands_published_total",
		Help:      "Total number of archive commands published to MQTT",
	})
	eventFileWriteFailTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "event_processor",
		Name:      "event_file_write_failures_total",
		Help:      "Total number of failed attempts to persist the event file",
	})

	base.registry.MustRegister(
		triggersTotal,
		triggersDroppedTotal,
		openEvents,
		archiveCommandsTotal,
		eventFileWriteFailTotal,
	)

	return &EventProcessor{
		Base:                    base,
		triggersTotal:           triggersTotal,
		triggersDroppedTotal:    triggersDroppedTotal,
		openEvents:              openEvents,
		archiveCommandsTotal:    archiveCommandsTotal,
		eventFileWriteFailTotal: eventFileWriteFailTotal,
	}
}

// IncTriggers increments the accepted-trigger counter.
func (m *EventProcessor) IncTriggers() { m.triggersTotal.Inc() }

// IncTriggersDropped increments the dropped-trigger counter.
func (m *EventProcessor) IncTriggersDropped() { m.triggersDroppedTotal.Inc() }

// SetOpenEvents sets the open-events gauge.
func (m *EventProcessor) SetOpenEvents(n int) { m.openEvents.Set(float64(n)) }

// IncArchiveCommandsPublished increments the published-archive-command counter.
func (m *EventProcessor) IncArchiveCommandsPublished() { m.archiveCommandsTotal.Inc() }

// IncEventFileWriteFailures increments the event-file write-failure counter.
func (m *EventProcessor) IncEventFileWriteFailures() { m.eventFileWriteFailTotal.Inc() }
