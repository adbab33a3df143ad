// Package diskusage computes recursive directory byte sizes for the
// Agent's video-directory disk-usage gauge.
package diskusage

import (
	"fmt"
	"os"
	"path/filepath"

	units "github.com/docker/go-units"
)

// Size recursively sums the byte length of every regular file under path.
func Size(path string) (int64, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return 0, fmt.Errorf("diskusage: read %s: %w", path, err)
	}

	var total int64
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			sub, err := Size(full)
			if err != nil {
				return 0, err
			}
			total += sub
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return 0, fmt.Errorf("diskusage: stat %s: %w", full, err)
		}
		total += info.Size()
	}

	return total, nil
}

// HumanSize formats a byte count the way operators expect to read it in logs.
func HumanSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
