package trigger

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveUsesNamedTemplateWhenIDMatches(t *testing.T) {
	templates := map[string]Template{
		"doorbell": {Cameras: []string{"front"}, Reason: "motion", PreSecs: 5, PostSecs: 10},
	}
	fallback := Template{Cameras: []string{"default-cam"}, Reason: "unknown"}

	r, ok := Resolve(Trigger{ID: "doorbell"}, fallback, templates, discardLogger())
	require.True(t, ok)
	assert.Equal(t, []string{"front"}, r.Cameras)
	assert.Equal(t, "motion", r.Reason)
	assert.Equal(t, 5*time.Second, r.Pre)
	assert.Equal(t, 10*time.Second, r.Post)
}

func TestResolveFallsBackWhenIDUnknown(t *testing.T) {
	fallback := Template{Cameras: []string{"default-cam"}, Reason: "unknown"}

	r, ok := Resolve(Trigger{ID: "nonexistent"}, fallback, nil, discardLogger())
	require.True(t, ok)
	assert.Equal(t, []string{"default-cam"}, r.Cameras)
	assert.Equal(t, "unknown", r.Reason)
}

func TestResolveFieldsOnTriggerOverrideTemplate(t *testing.T) {
	fallback := Template{Cameras: []string{"default-cam"}, Reason: "unknown", PreSecs: 5, PostSecs: 5}
	pre := 1
	post := 2

	r, ok := Resolve(Trigger{
		Cameras:  []string{"override-cam"},
		Reason:   "override-reason",
		PreSecs:  &pre,
		PostSecs: &post,
	}, fallback, nil, discardLogger())

	require.True(t, ok)
	assert.Equal(t, []string{"override-cam"}, r.Cameras)
	assert.Equal(t, "override-reason", r.Reason)
	assert.Equal(t, time.Second, r.Pre)
	assert.Equal(t, 2*time.Second, r.Post)
}

func TestResolveDropsTriggerWithNoCameras(t *testing.T) {
	fallback := Template{Reason: "unknown"}
	_, ok := Resolve(Trigger{}, fallback, nil, discardLogger())
	assert.False(t, ok)
}

func TestResolveDefaultsTimestampToNow(t *testing.T) {
	fallback := Template{Cameras: []string{"cam"}}
	before := time.Now()
	r, ok := Resolve(Trigger{}, fallback, nil, discardLogger())
	require.True(t, ok)
	assert.True(t, r.Timestamp.After(before) || r.Timestamp.Equal(before))
}

func TestResolveHonorsExplicitTimestamp(t *testing.T) {
	fallback := Template{Cameras: []string{"cam"}}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	r, ok := Resolve(Trigger{Timestamp: &ts}, fallback, nil, discardLogger())
	require.True(t, ok)
	assert.True(t, r.Timestamp.Equal(ts))
}
