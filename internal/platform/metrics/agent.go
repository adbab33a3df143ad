package metrics

import "github.com/prometheus/client_golang/prometheus"

// Agent holds the metrics exposed by the Agent process: the common
// request/error counters plus the transcoder-restart counter, the current
// segment index size, and the video directory's disk usage.
type Agent struct {
	*Base

	ffmpegRestartsTotal prometheus.Counter
	segmentIndexSize    prometheus.Gauge
	videoDirectoryBytes prometheus.Gauge
}

// NewAgent constructs and registers the Agent's metrics.
func NewAgent() *Agent {
	base := newBase("agent")

	ffmpegRestartsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "agent",
		Name:      "ffmpeg_restarts_total",
		Help:      "Total number of times the transcoder child process has been restarted",
	})
	segmentIndexSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agent",
		Name:      "segment_index_size",
		Help:      "Number of segments currently held in the in-memory segment index",
	})
	videoDirectoryBytes := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "agent",
		Name:      "video_directory_bytes",
		Help:      "Total bytes used under the video directory",
	})

	base.registry.MustRegister(ffmpegRestartsTotal, segmentIndexSize, videoDirectoryBytes)

	return &Agent{
		Base:                base,
		ffmpegRestartsTotal: ffmpegRestartsTotal,
		segmentIndexSize:    segmentIndexSize,
		videoDirectoryBytes: videoDirectoryBytes,
	}
}

// IncFFmpegRestarts increments the transcoder restart counter.
func (m *Agent) IncFFmpegRestarts() { m.ffmpegRestartsTotal.Inc() }

// SetSegmentIndexSize sets the current segment index size gauge.
func (m *Agent) SetSegmentIndexSize(n int) { m.segmentIndexSize.Set(float64(n)) }

// SetVideoDirectoryBytes sets the video directory disk usage gauge.
func (m *Agent) SetVideoDirectoryBytes(n int64) { m.videoDirectoryBytes.Set(float64(n)) }
