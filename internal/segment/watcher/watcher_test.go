package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satori/internal/segment"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writePlaylist(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWatcherAnchorsFirstObservationToNowMinusDuration(t *testing.T) {
	dir := t.TempDir()
	playlistPath := filepath.Join(dir, "playlist.m3u8")
	writePlaylist(t, playlistPath, "#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n")

	idx := segment.NewIndex()
	w := New(playlistPath, idx, time.Hour, discardLogger())

	fixedNow := time.Date(2024, 1, 1, 10, 0, 6, 0, time.UTC)
	w.clock = func() time.Time { return fixedNow }

	w.poll()

	snap := idx.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, fixedNow.Add(-6*time.Second), snap[0].Start)
}

func TestWatcherChainsSubsequentSegmentsForward(t *testing.T) {
	dir := t.TempDir()
	playlistPath := filepath.Join(dir, "playlist.m3u8")
	writePlaylist(t, playlistPath, "#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n")

	idx := segment.NewIndex()
	w := New(playlistPath, idx, time.Hour, discardLogger())

	t0 := time.Date(2024, 1, 1, 10, 0, 6, 0, time.UTC)
	w.clock = func() time.Time { return t0 }
	w.poll()

	writePlaylist(t, playlistPath, "#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n#EXTINF:6.000,\nseg-1.ts\n")
	t1 := t0.Add(time.Second) // polled quickly, well before the true duration elapsed
	w.clock = func() time.Time { return t1 }
	w.poll()

	snap := idx.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[1].Start.Equal(snap[0].End()), "second segment should chain from the first segment's end")
}

func TestWatcherEvictsSegmentsDroppedFromPlaylistHead(t *testing.T) {
	dir := t.TempDir()
	playlistPath := filepath.Join(dir, "playlist.m3u8")
	writePlaylist(t, playlistPath, "#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n#EXTINF:6.000,\nseg-1.ts\n")

	idx := segment.NewIndex()
	w := New(playlistPath, idx, time.Hour, discardLogger())
	w.poll()
	require.Equal(t, 2, idx.Len())

	writePlaylist(t, playlistPath, "#EXTINF:6.000,\nseg-1.ts\n")
	w.poll()

	assert.Equal(t, 1, idx.Len())
	assert.False(t, idx.Has("seg-0.ts"))
	assert.True(t, idx.Has("seg-1.ts"))
}

func TestWatcherMissingPlaylistIsNotFatal(t *testing.T) {
	idx := segment.NewIndex()
	w := New(filepath.Join(t.TempDir(), "missing.m3u8"), idx, time.Hour, discardLogger())
	w.poll()
	assert.Equal(t, 0, idx.Len())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	playlistPath := filepath.Join(dir, "playlist.m3u8")
	writePlaylist(t, playlistPath, "#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n")

	idx := segment.NewIndex()
	w := New(playlistPath, idx, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.Equal(t, 1, idx.Len())
}
