package event

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	events := []Event{{ID: "1", Cameras: []string{"a"}, Reason: "motion", Start: time.Now().UTC(), End: time.Now().UTC()}}

	require.NoError(t, Save(path, events))

	loaded, err := Load(path, discardLogger())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "1", loaded[0].ID)
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, Save(path, nil))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.json"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadCorruptFileIsMovedAsideAndReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	loaded, err := Load(path, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, loaded)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt file should have been renamed aside")

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "exactly one corrupt-suffixed file should remain")
}
