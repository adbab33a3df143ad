package event

import "time"

// ArchiveCommand is the MQTT payload published once an event becomes
// eligible for archival. "kind" discriminates the segment-fetch variant
// from the event-metadata variant on the wire.
type ArchiveCommand struct {
	Kind    string    `json:"kind"`
	Camera  string    `json:"camera,omitempty"`
	Start   time.Time `json:"start,omitempty"`
	End     time.Time `json:"end,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Event   *Event    `json:"event,omitempty"`
}

const (
	KindArchiveSegments = "archive_segments"
	KindEventMetadata   = "event_metadata"
)

// SegmentCommands builds one archive_segments command per camera in e.
func SegmentCommands(e *Event) []ArchiveCommand {
	cmds := make([]ArchiveCommand, 0, len(e.Cameras))
	for _, camera := range e.Cameras {
		cmds = append(cmds, ArchiveCommand{
			Kind:   KindArchiveSegments,
			Camera: camera,
			Start:  e.Start,
			End:    e.End,
			Reason: e.Reason,
		})
	}
	return cmds
}

// MetadataCommand builds the event-metadata command carrying the full event descriptor.
func MetadataCommand(e *Event) ArchiveCommand {
	eventCopy := *e
	return ArchiveCommand{Kind: KindEventMetadata, Event: &eventCopy}
}
