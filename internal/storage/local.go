package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const archiveIndexHeader = "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-PLAYLIST-TYPE:EVENT\n"

// Local persists every key as a file under a root directory, mirroring the
// object-store key layout 1:1 onto the filesystem.
type Local struct {
	root string
}

// NewLocal returns a Local provider rooted at path, creating it if necessary.
func NewLocal(path string) (*Local, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root %s: %w", path, err)
	}
	return &Local{root: path}, nil
}

func (l *Local) PutSegment(camera, filename string, data []byte) error {
	path := filepath.Join(l.root, segmentKey(camera, filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create camera directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: write segment: %w", err)
	}
	return nil
}

func (l *Local) SegmentExists(camera, filename string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.root, segmentKey(camera, filename)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("storage: stat segment: %w", err)
}

func (l *Local) AppendArchiveIndexEntry(camera, filename string, duration time.Duration) error {
	path := filepath.Join(l.root, archiveIndexKey(camera))

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: read archive index: %w", err)
	}

	body := string(existing)
	if body == "" {
		body = archiveIndexHeader
	}

	if archiveIndexContains(body, filename) {
		return nil
	}

	body += fmt.Sprintf("#EXTINF:%s,\n%s\n", strconv.FormatFloat(duration.Seconds(), 'f', 3, 64), filename)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create camera directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0o644); err != nil {
		return fmt.Errorf("storage: write archive index temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: persist archive index: %w", err)
	}

	return nil
}

func (l *Local) PutEventMetadata(eventID string, data []byte) error {
	path := filepath.Join(l.root, eventKey(eventID))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create events directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: write event metadata: %w", err)
	}
	return nil
}

// archiveIndexContains reports whether filename already appears as an
// EXTINF URI line in body, making repeated appends idempotent.
func archiveIndexContains(body, filename string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == filename {
			return true
		}
	}
	return false
}
