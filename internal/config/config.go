// Package config defines the TOML configuration shapes for the Agent, Event
// Processor, and Archiver processes. Values are decoded by
// satori/internal/platform/config.Load.
package config

// MQTT carries the broker connection details shared by the Event Processor
// (publisher) and the Archiver (subscriber).
type MQTT struct {
	Broker   string `toml:"broker"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Topic    string `toml:"topic"`
	ClientID string `toml:"client_id"`
}

// Stream describes the camera source and transcoder parameters for one Agent.
type Stream struct {
	URL                     string   `toml:"url"`
	FFmpegInputArgs         []string `toml:"ffmpeg_input_args"`
	HLSSegmentTime          int      `toml:"hls_segment_time"`
	HLSRetainedSegmentCount int      `toml:"hls_retained_segment_count"`
	FFmpegRestartDelaySecs  int      `toml:"ffmpeg_restart_delay"`
}

// Agent is the top-level Agent configuration file.
type Agent struct {
	VideoDirectory string `toml:"video_directory"`
	HTTPAddr       string `toml:"http_addr"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	MetricsAddr    string `toml:"metrics_addr"`
	Stream         Stream `toml:"stream"`
}

// TriggerTemplate carries named defaults applied when resolving a trigger.
type TriggerTemplate struct {
	Cameras []string `toml:"cameras"`
	Reason  string   `toml:"reason"`
	PreSecs int      `toml:"pre"`
	PostSecs int     `toml:"post"`
}

// Triggers groups the fallback template and the named template table.
type Triggers struct {
	Fallback  TriggerTemplate            `toml:"fallback"`
	Templates map[string]TriggerTemplate `toml:"templates"`
}

// EventProcessor is the top-level Event Processor configuration file.
type EventProcessor struct {
	EventFile     string   `toml:"event_file"`
	IntervalSecs  int      `toml:"interval"`
	EventTTLSecs  int      `toml:"event_ttl"`
	HTTPAddr      string   `toml:"http_addr"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
	MetricsAddr   string   `toml:"metrics_addr"`
	MQTT          MQTT     `toml:"mqtt"`
	Triggers      Triggers `toml:"triggers"`
}

// Storage discriminates the archiver's object-store backend by Kind
// ("s3" or "local"), with kind-specific fields left blank when unused.
type Storage struct {
	Kind     string `toml:"kind"`
	Bucket   string `toml:"bucket"`
	Region   string `toml:"region"`
	Endpoint string `toml:"endpoint"`
	Path     string `toml:"path"`
}

// Archiver is the top-level Archiver configuration file.
type Archiver struct {
	QueueFile       string            `toml:"queue_file"`
	IntervalMillis  int               `toml:"interval"`
	Cameras         []string          `toml:"cameras"`
	Agents          map[string]string `toml:"agents"`
	FetchTimeoutSecs int              `toml:"fetch_timeout"`
	BackoffBaseSecs  int              `toml:"backoff_base"`
	BackoffMaxSecs   int              `toml:"backoff_max"`
	LogLevel        string            `toml:"log_level"`
	LogFormat       string            `toml:"log_format"`
	MetricsAddr     string            `toml:"metrics_addr"`
	MQTT            MQTT              `toml:"mqtt"`
	Storage         Storage           `toml:"storage"`
}
