// Package archiver ties the Archiver's queue, fetch client, and storage
// provider together: the worker loop that actually does the archiving, and
// the MQTT command handler that turns archive commands into queue entries.
package archiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"satori/internal/event"
	"satori/internal/fetch"
	"satori/internal/platform/metrics"
	"satori/internal/queue"
	"satori/internal/storage"
)

// Worker scans the queue each tick, processing every due entry head-to-tail
// without letting a permanently-failing entry block the rest.
type Worker struct {
	q             *queue.Queue
	queueFile     string
	store         storage.Provider
	agentBaseURLs map[string]string // camera -> agent base URL
	fetchTimeout  time.Duration
	backoffBase   time.Duration
	backoffMax    time.Duration
	interval      time.Duration
	log           *slog.Logger
	metrics       *metrics.Archiver
}

// NewWorker returns a Worker for q, persisting to queueFile and fetching
// segments from the agents named in agentBaseURLs.
func NewWorker(q *queue.Queue, queueFile string, store storage.Provider, agentBaseURLs map[string]string, fetchTimeout, backoffBase, backoffMax, interval time.Duration, log *slog.Logger, m *metrics.Archiver) *Worker {
	return &Worker{
		q:             q,
		queueFile:     queueFile,
		store:         store,
		agentBaseURLs: agentBaseURLs,
		fetchTimeout:  fetchTimeout,
		backoffBase:   backoffBase,
		backoffMax:    backoffMax,
		interval:      interval,
		log:           log,
		metrics:       m,
	}
}

// Run blocks, ticking until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	for _, entry := range w.q.Due(time.Now()) {
		kind := taskKind(entry.Kind)

		err := w.process(ctx, entry)
		if err != nil {
			if errors.Is(err, errUnknownCamera) {
				w.log.Warn("dropping queue entry for unknown camera",
					slog.String("id", entry.ID), slog.String("camera", entry.Camera))
				if w.metrics != nil {
					w.metrics.IncUnknownCamera()
				}
				w.q.Remove(entry.ID)
				continue
			}

			w.log.Warn("queue entry failed, will retry with backoff",
				slog.String("id", entry.ID), slog.String("kind", string(entry.Kind)), slog.String("error", err.Error()))
			w.q.RecordFailure(entry.ID, w.backoffBase, w.backoffMax, time.Now())
			if w.metrics != nil {
				w.metrics.IncFinishedTasks(kind, metrics.TaskResultFailure)
			}
			continue
		}

		w.q.Remove(entry.ID)
		if w.metrics != nil {
			w.metrics.IncFinishedTasks(kind, metrics.TaskResultSuccess)
		}
	}

	if err := queue.Save(w.queueFile, w.q.Snapshot()); err != nil {
		w.log.Warn("failed to persist queue file, retrying next tick", slog.String("error", err.Error()))
	}

	if w.metrics != nil {
		w.metrics.SetQueueLength(metrics.TaskKindSegments, w.q.LenByKind(queue.KindFetchAndStoreSegments))
		w.metrics.SetQueueLength(metrics.TaskKindEvent, w.q.LenByKind(queue.KindStoreEventMetadata))
	}
}

func taskKind(k queue.Kind) metrics.TaskKind {
	if k == queue.KindStoreEventMetadata {
		return metrics.TaskKindEvent
	}
	return metrics.TaskKindSegments
}

func (w *Worker) process(ctx context.Context, e queue.Entry) error {
	switch e.Kind {
	case queue.KindFetchAndStoreSegments:
		return w.fetchAndStoreSegments(ctx, e)
	case queue.KindStoreEventMetadata:
		return w.store.PutEventMetadata(e.EventID, e.EventJSON)
	default:
		return fmt.Errorf("archiver: unknown queue entry kind %q", e.Kind)
	}
}

// errUnknownCamera marks a terminal, non-retryable failure: the queue entry
// names a camera with no configured agent base URL. tick drops entries
// failing with this error instead of scheduling a backoff retry.
var errUnknownCamera = errors.New("archiver: no configured agent for camera")

func (w *Worker) fetchAndStoreSegments(ctx context.Context, e queue.Entry) error {
	baseURL, ok := w.agentBaseURLs[e.Camera]
	if !ok {
		return fmt.Errorf("%w %q", errUnknownCamera, e.Camera)
	}

	client := fetch.New(baseURL, w.fetchTimeout)

	entries, err := client.Playlist(ctx, e.Start, e.End)
	if err != nil {
		return fmt.Errorf("fetch playlist: %w", err)
	}

	for _, entry := range entries {
		exists, err := w.store.SegmentExists(e.Camera, entry.URI)
		if err != nil {
			return fmt.Errorf("check segment existence: %w", err)
		}

		if !exists {
			data, err := client.Segment(ctx, entry.URI)
			if err != nil {
				// A 404 fails the entry on its first attempt so it is retried
				// with backoff; once the entry has been retried, a segment
				// that is still missing is treated as evicted and skipped.
				if errors.Is(err, fetch.ErrNotFound) && e.Attempts > 0 {
					w.log.Warn("segment still missing after retry, skipping",
						slog.String("camera", e.Camera), slog.String("filename", entry.URI))
					continue
				}
				return fmt.Errorf("fetch segment %s: %w", entry.URI, err)
			}

			if err := w.store.PutSegment(e.Camera, entry.URI, data); err != nil {
				return fmt.Errorf("store segment %s: %w", entry.URI, err)
			}
		}

		// AppendArchiveIndexEntry is idempotent by filename, so it must run
		// every time a segment is confirmed stored — including when it was
		// already stored by an earlier, partially-failed attempt — or a
		// segment can end up in the store but never indexed.
		if err := w.store.AppendArchiveIndexEntry(e.Camera, entry.URI, entry.Duration); err != nil {
			return fmt.Errorf("append archive index for %s: %w", entry.URI, err)
		}
	}

	return nil
}

// EnqueueCommand turns an incoming archive command into queue entries. A
// camera absent from the (optional) allow-list is silently dropped here —
// distinct from the no-base-URL-mapping drop the worker records when it
// later fails to resolve an agent for an already-queued entry.
func EnqueueCommand(q *queue.Queue, knownCameras map[string]bool, cmd event.ArchiveCommand, log *slog.Logger, m *metrics.Archiver) {
	switch cmd.Kind {
	case event.KindArchiveSegments:
		if knownCameras != nil && !knownCameras[cmd.Camera] {
			return
		}
		q.Enqueue(queue.Entry{
			ID:     fmt.Sprintf("%s-%s-%d", cmd.Camera, cmd.Start.Format(time.RFC3339), time.Now().UnixNano()),
			Kind:   queue.KindFetchAndStoreSegments,
			Camera: cmd.Camera,
			Start:  cmd.Start,
			End:    cmd.End,
		})
	case event.KindEventMetadata:
		if cmd.Event == nil {
			return
		}
		data, err := json.Marshal(cmd.Event)
		if err != nil {
			log.Warn("failed to marshal event metadata command", slog.String("error", err.Error()))
			return
		}
		q.Enqueue(queue.Entry{
			ID:        fmt.Sprintf("event-%s-%d", cmd.Event.ID, time.Now().UnixNano()),
			Kind:      queue.KindStoreEventMetadata,
			EventID:   cmd.Event.ID,
			EventJSON: data,
		})
	}
}
