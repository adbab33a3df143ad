package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Save serialises entries atomically: write to a sibling .tmp file, then
// rename over the target so a crash mid-write never leaves a truncated file.
func Save(path string, entries []Entry) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("queue: create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("queue: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("queue: write temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("queue: persist file: %w", err)
	}

	return nil
}

// Load reads a previously saved queue file. A missing file is not an
// error: it returns an empty slice, matching a fresh Archiver's startup state.
//
// A file that exists but cannot be parsed is corruption, not a transient
// error: Load renames it aside with a ".corrupt-<unix-timestamp>" suffix,
// logs it at error level, and returns an empty slice so the service starts
// clean instead of failing to boot.
func Load(path string, log *slog.Logger) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue: read file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if renameErr := os.Rename(path, corruptPath); renameErr != nil {
			log.Error("queue file is corrupt and could not be renamed aside, starting empty",
				slog.String("path", path), slog.String("parse_error", err.Error()), slog.String("rename_error", renameErr.Error()))
		} else {
			log.Error("queue file is corrupt, moved aside and starting with empty state",
				slog.String("path", path), slog.String("moved_to", corruptPath), slog.String("parse_error", err.Error()))
		}
		return nil, nil
	}

	return entries, nil
}
