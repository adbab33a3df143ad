package transcoder

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFakeFFmpeg writes a shell script standing in for the ffmpeg binary.
func writeFakeFFmpeg(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-ffmpeg.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

type restartCounter struct {
	n atomic.Int64
}

func (r *restartCounter) IncFFmpegRestarts() { r.n.Add(1) }

func TestSupervisorRestartsOnChildExit(t *testing.T) {
	scriptDir := t.TempDir()
	videoDir := t.TempDir()
	bin := writeFakeFFmpeg(t, scriptDir, "exit 0\n")

	counter := &restartCounter{}
	sup := New(Config{
		FFmpegBin:               bin,
		VideoDirectory:          videoDir,
		URL:                     "rtsp://camera/stream",
		HLSSegmentTime:          6,
		HLSRetainedSegmentCount: 5,
		RestartDelay:            5 * time.Millisecond,
	}, discardLogger(), counter)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_ = sup.Run(ctx)

	assert.GreaterOrEqual(t, counter.n.Load(), int64(2), "child exiting repeatedly should be restarted more than once")
}

func TestSupervisorFatalOnUncreatableVideoDirectory(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	sup := New(Config{
		FFmpegBin:      "true",
		VideoDirectory: filepath.Join(blocker, "nested"),
		RestartDelay:   time.Millisecond,
	}, discardLogger(), nil)

	err := sup.Run(context.Background())
	assert.Error(t, err)
}

func TestSupervisorStopSendsSigintAndReturnsPromptly(t *testing.T) {
	scriptDir := t.TempDir()
	videoDir := t.TempDir()
	bin := writeFakeFFmpeg(t, scriptDir, "trap 'exit 0' INT\nsleep 5 &\nwait\n")

	sup := New(Config{
		FFmpegBin:      bin,
		VideoDirectory: videoDir,
		RestartDelay:   time.Second,
		KillGrace:      2 * time.Second,
	}, discardLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan struct{})
	go func() {
		_ = sup.Run(ctx)
		close(runDone)
	}()

	require.Eventually(t, func() bool { return sup.PID() != 0 }, time.Second, 5*time.Millisecond)

	stopStart := time.Now()
	sup.Stop()
	assert.Less(t, time.Since(stopStart), time.Second, "Stop should return quickly once the child honors SIGINT")

	cancel()
	<-runDone
}
