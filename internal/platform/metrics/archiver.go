package metrics

import "github.com/prometheus/client_golang/prometheus"

// TaskKind labels a queue entry by its variant, one value per queue.Kind.
type TaskKind string

const (
	TaskKindSegments TaskKind = "segments"
	TaskKindEvent     TaskKind = "event_metadata"
)

// TaskResult labels a finished task attempt.
type TaskResult string

const (
	TaskResultSuccess TaskResult = "success"
	TaskResultFailure TaskResult = "failure"
)

// Archiver holds the metrics exposed by the Archiver process: queue length
// by kind, finished-task counts by kind and result, and a counter for
// archive commands dropped because their camera has no known agent.
type Archiver struct {
	*Base

	queueLength        *prometheus.GaugeVec
	finishedTasksTotal *prometheus.CounterVec
	unknownCameraTotal prometheus.Counter
}

// NewArchiver constructs and registers the Archiver's metrics.
func NewArchiver() *Archiver {
	base := newBase("archiver")

	queueLength := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "archiver",
		Name:      "queue_length",
		Help:      "Number of entries currently queued, by task kind",
	}, []string{"kind"})

	finishedTasksTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "archiver",
		Name:      "finished_tasks_total",
		Help:      "Total number of queue entries that finished processing, by task kind and result",
	}, []string{"kind", "result"})

	unknownCameraTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "archiver",
		Name:      "unknown_camera_total",
		Help:      "Total number of archive commands dropped because the camera has no configured agent base URL",
	})

	base.registry.MustRegister(queueLength, finishedTasksTotal, unknownCameraTotal)

	return &Archiver{
		Base:                base,
		queueLength:         queueLength,
		finishedTasksTotal:  finishedTasksTotal,
		unknownCameraTotal:  unknownCameraTotal,
	}
}

// SetQueueLength sets the queue length gauge for the given task kind.
func (m *Archiver) SetQueueLength(kind TaskKind, n int) {
	m.queueLength.WithLabelValues(string(kind)).Set(float64(n))
}

// IncFinishedTasks increments the finished-task counter for the given kind and result.
func (m *Archiver) IncFinishedTasks(kind TaskKind, result TaskResult) {
	m.finishedTasksTotal.WithLabelValues(string(kind), string(result)).Inc()
}

// IncUnknownCamera increments the unknown-camera-drop counter.
func (m *Archiver) IncUnknownCamera() { m.unknownCameraTotal.Inc() }
