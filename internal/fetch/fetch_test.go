package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaylistParsesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stream.m3u8", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		w.Write([]byte("#EXTM3U\n#EXTINF:6.000,\nseg-0.ts\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	entries, err := c.Playlist(context.Background(), time.Now(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "seg-0.ts", entries[0].URI)
}

func TestSegmentReturnsErrNotFoundOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.Segment(context.Background(), "missing.ts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSegmentReturnsBodyOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/segments/a.ts", r.URL.Path)
		w.Write([]byte("tsbytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	data, err := c.Segment(context.Background(), "a.ts")
	require.NoError(t, err)
	assert.Equal(t, "tsbytes", string(data))
}
