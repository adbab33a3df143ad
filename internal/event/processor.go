package event

import (
	"context"
	"log/slog"
	"time"
)

// Publisher is the narrow MQTT surface the tick loop needs; satisfied by
// mqttutil.Client.PublishJSON.
type Publisher interface {
	PublishJSON(payload any) error
}

// Recorder is the metrics surface the tick loop updates.
type Recorder interface {
	SetOpenEvents(n int)
	IncArchiveCommandsPublished()
	IncEventFileWriteFailures()
}

// Processor drives the Event Processor's tick loop: persist, dispatch due
// events, expire stale ones.
type Processor struct {
	set       *Set
	eventFile string
	interval  time.Duration
	pub       Publisher
	log       *slog.Logger
	metrics   Recorder
}

// NewProcessor returns a Processor for set, persisting to eventFile and
// publishing archive commands through pub every interval.
func NewProcessor(set *Set, eventFile string, interval time.Duration, pub Publisher, log *slog.Logger, metrics Recorder) *Processor {
	return &Processor{set: set, eventFile: eventFile, interval: interval, pub: pub, log: log, metrics: metrics}
}

// Run blocks, ticking until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Processor) tick() {
	if err := Save(p.eventFile, p.set.Snapshot()); err != nil {
		p.log.Warn("failed to persist event file, retrying next tick", slog.String("error", err.Error()))
		if p.metrics != nil {
			p.metrics.IncEventFileWriteFailures()
		}
	}

	for _, e := range p.set.DueForDispatch() {
		if !p.dispatch(e) {
			continue // publish failed; leave dispatched=false for the next tick
		}
		p.set.MarkDispatched(e.ID)
	}

	p.set.ExpireOlderThan(time.Now())

	if p.metrics != nil {
		p.metrics.SetOpenEvents(p.set.Len())
	}
}

// dispatch publishes every archive command for e, returning false (leaving
// the event undispatched for retry) if any publish fails.
func (p *Processor) dispatch(e *Event) bool {
	for _, cmd := range SegmentCommands(e) {
		if err := p.pub.PublishJSON(cmd); err != nil {
			p.log.Warn("archive command publish failed", slog.String("event_id", e.ID), slog.String("error", err.Error()))
			return false
		}
		if p.metrics != nil {
			p.metrics.IncArchiveCommandsPublished()
		}
	}

	if err := p.pub.PublishJSON(MetadataCommand(e)); err != nil {
		p.log.Warn("event metadata publish failed", slog.String("event_id", e.ID), slog.String("error", err.Error()))
		return false
	}
	if p.metrics != nil {
		p.metrics.IncArchiveCommandsPublished()
	}

	return true
}
