// Package watcher polls a transcoder-written HLS playlist file and mirrors
// it into a segment.Index, anchoring each newly observed segment to the
// wall-clock time the watcher first saw it.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"satori/internal/hls"
	"satori/internal/segment"
)

// Clock returns the current wall-clock time. Tests substitute a fake.
type Clock func() time.Time

// Watcher polls playlistPath for changes and keeps idx in sync with it.
// It is the sole writer of idx; see the package-level concurrency note on
// segment.Index.
type Watcher struct {
	playlistPath string
	idx          *segment.Index
	pollInterval time.Duration
	clock        Clock
	log          *slog.Logger

	known map[string]segment.Segment // filename -> anchored segment, carried across polls
	tail  time.Time                  // End() of the most recently anchored segment
}

// New returns a Watcher that polls playlistPath at pollInterval and writes
// into idx.
func New(playlistPath string, idx *segment.Index, pollInterval time.Duration, log *slog.Logger) *Watcher {
	return &Watcher{
		playlistPath: playlistPath,
		idx:          idx,
		pollInterval: pollInterval,
		clock:        time.Now,
		log:          log,
		known:        make(map[string]segment.Segment),
	}
}

// Run polls until ctx is cancelled. It never returns an error: an unreadable
// playlist file is logged, a missing one (the transcoder may not have written
// it yet) is skipped silently, and both are retried on the next tick.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	data, err := os.ReadFile(w.playlistPath)
	if err != nil {
		if !os.IsNotExist(err) {
			w.log.Warn("failed to read playlist", slog.String("path", w.playlistPath), slog.String("error", err.Error()))
		}
		return
	}

	entries, err := hls.Parse(data)
	if err != nil {
		w.log.Warn("failed to parse playlist", slog.String("path", w.playlistPath), slog.String("error", err.Error()))
		return
	}

	now := w.clock()

	segs := make([]segment.Segment, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		seen[e.URI] = true

		if existing, ok := w.known[e.URI]; ok {
			segs = append(segs, existing)
			continue
		}

		// A freshly observed segment is anchored to now minus its own
		// duration; this is within one poll interval of its true start,
		// which the windowing contract accepts.
		start := now.Add(-e.Duration)
		if !w.tail.IsZero() && start.Before(w.tail) {
			// Chain forward from the previous segment's end when the
			// playlist was polled quickly enough that durations overlap
			// with the anchor estimate; this keeps the index monotonic.
			start = w.tail
		}

		s := segment.Segment{Filename: e.URI, Duration: e.Duration, Start: start}
		w.known[e.URI] = s
		segs = append(segs, s)
		w.tail = s.End()
	}

	// Drop anything evicted from the playlist head (the ring rolled).
	for filename := range w.known {
		if !seen[filename] {
			delete(w.known, filename)
		}
	}

	w.idx.Replace(segs)
}
