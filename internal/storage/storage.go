// Package storage defines the Archiver's object-store abstraction and its
// two backends: a local filesystem provider and an S3-compatible provider.
// Keys follow <camera>/<segment-filename> for segments, <camera>/archive.m3u8
// for the per-camera growing index, and events/<event-id>.json for metadata.
package storage

import "time"

// Provider is implemented by every object-store backend the Archiver can
// write to. All operations are idempotent by key: a duplicate MQTT delivery
// must never produce duplicate object-store keys or duplicate archive.m3u8 entries.
type Provider interface {
	// PutSegment writes a segment's raw bytes under <camera>/<filename>,
	// overwriting any existing object at that key.
	PutSegment(camera, filename string, data []byte) error

	// SegmentExists reports whether <camera>/<filename> is already present.
	SegmentExists(camera, filename string) (bool, error)

	// AppendArchiveIndexEntry appends one segment to <camera>/archive.m3u8,
	// creating the file if it doesn't exist. A filename already present in
	// the index is a no-op, making repeated calls for the same segment safe.
	AppendArchiveIndexEntry(camera, filename string, duration time.Duration) error

	// PutEventMetadata writes an event descriptor under events/<eventID>.json.
	PutEventMetadata(eventID string, data []byte) error
}

func segmentKey(camera, filename string) string {
	return camera + "/" + filename
}

func archiveIndexKey(camera string) string {
	return camera + "/archive.m3u8"
}

func eventKey(eventID string) string {
	return "events/" + eventID + ".json"
}
