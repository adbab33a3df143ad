package hls

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satori/internal/segment"
)

func TestParseExtractsURIAndDuration(t *testing.T) {
	data := []byte(`#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:0

#EXTINF:6.000,
seg-0.ts
#EXTINF:6.000,
seg-1.ts
`)

	entries, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "seg-0.ts", entries[0].URI)
	assert.Equal(t, 6*time.Second, entries[0].Duration)
	assert.Equal(t, "seg-1.ts", entries[1].URI)
}

func TestParseEmptyPlaylist(t *testing.T) {
	entries, err := Parse([]byte("#EXTM3U\n#EXT-X-VERSION:3\n"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestParseSkipsMalformedExtinf(t *testing.T) {
	data := []byte("#EXTM3U\n#EXTINF:not-a-number,\nseg-0.ts\n#EXTINF:6.0,\nseg-1.ts\n")
	entries, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "seg-1.ts", entries[0].URI)
}

func TestBuildRoundTripsThroughParse(t *testing.T) {
	now := time.Now().UTC()
	segs := []segment.Segment{
		{Filename: "a.ts", Duration: 6 * time.Second, Start: now},
		{Filename: "b.ts", Duration: 6 * time.Second, Start: now.Add(6 * time.Second)},
	}

	out := Build(segs, 5, false)
	assert.Contains(t, out, "#EXT-X-MEDIA-SEQUENCE:5")
	assert.NotContains(t, out, "#EXT-X-ENDLIST")

	entries, err := Parse([]byte(out))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.ts", entries[0].URI)
	assert.Equal(t, "b.ts", entries[1].URI)
}

func TestBuildEmptySegmentsIsValidPlaylist(t *testing.T) {
	out := Build(nil, 0, true)
	assert.Contains(t, out, "#EXTM3U")
	assert.Contains(t, out, "#EXT-X-ENDLIST")
}

func TestBuildTargetDurationIsCeilingOfMax(t *testing.T) {
	now := time.Now()
	segs := []segment.Segment{
		{Filename: "a.ts", Duration: 6500 * time.Millisecond, Start: now},
	}
	out := Build(segs, 0, false)
	assert.Contains(t, out, "#EXT-X-TARGETDURATION:7")
}
