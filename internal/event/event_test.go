package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satori/internal/trigger"
)

func resolved(cameras []string, reason string, pre, post time.Duration, at time.Time) trigger.Resolved {
	return trigger.Resolved{Cameras: cameras, Reason: reason, Pre: pre, Post: post, Timestamp: at}
}

func TestMergeCreatesNewEventForUnseenKey(t *testing.T) {
	s := NewSet(time.Minute)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	e := s.Merge(resolved([]string{"front"}, "motion", 5*time.Second, 10*time.Second, now))

	assert.Equal(t, now.Add(-5*time.Second), e.Start)
	assert.Equal(t, now.Add(10*time.Second), e.End)
	assert.Equal(t, 1, s.Len())
}

func TestMergeExtendsMatchingOpenEvent(t *testing.T) {
	s := NewSet(time.Hour)
	t0 := time.Now()

	first := s.Merge(resolved([]string{"front"}, "motion", time.Second, time.Second, t0))
	second := s.Merge(resolved([]string{"front"}, "motion", time.Second, 30*time.Second, t0.Add(5*time.Second)))

	require.Equal(t, first.ID, second.ID, "matching (cameras, reason) should coalesce into one event")
	assert.Equal(t, 1, s.Len())
	assert.True(t, second.End.After(first.Start))
}

func TestMergeKeepsSeparateEventsForDifferentReasons(t *testing.T) {
	s := NewSet(time.Hour)
	now := time.Now()

	s.Merge(resolved([]string{"front"}, "motion", 0, 0, now))
	s.Merge(resolved([]string{"front"}, "doorbell", 0, 0, now))

	assert.Equal(t, 2, s.Len())
}

func TestMergeCameraSetOrderDoesNotAffectCoalescing(t *testing.T) {
	s := NewSet(time.Hour)
	now := time.Now()

	first := s.Merge(resolved([]string{"a", "b"}, "motion", 0, 0, now))
	second := s.Merge(resolved([]string{"b", "a"}, "motion", 0, 0, now))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, s.Len())
}

func TestDueForDispatchOnlyReturnsElapsedUndispatchedEvents(t *testing.T) {
	s := NewSet(time.Hour)
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	elapsed := s.Merge(resolved([]string{"a"}, "r1", 0, 0, past))
	notYet := s.Merge(resolved([]string{"b"}, "r2", 0, 0, future))
	_ = notYet

	due := s.DueForDispatch()
	require.Len(t, due, 1)
	assert.Equal(t, elapsed.ID, due[0].ID)

	s.MarkDispatched(elapsed.ID)
	assert.Empty(t, s.DueForDispatch())
}

func TestExpireOlderThanRemovesPastDeadline(t *testing.T) {
	s := NewSet(time.Second)
	past := time.Now().Add(-time.Hour)
	s.Merge(resolved([]string{"a"}, "r1", 0, 0, past))

	require.Equal(t, 1, s.Len())
	s.ExpireOlderThan(time.Now())
	assert.Equal(t, 0, s.Len())
}

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	s := NewSet(time.Hour)
	s.Merge(resolved([]string{"a"}, "r1", 0, 0, time.Now()))

	snap := s.Snapshot()

	restored := NewSet(time.Hour)
	restored.Restore(snap)
	assert.Equal(t, s.Len(), restored.Len())
}
