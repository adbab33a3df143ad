// Package agenthttp exposes the Agent's HTTP surface: windowed playlists,
// raw segment bytes with Range support, the rolling still frame, the
// embedded player pass-through, and the ambient health/metrics endpoints.
package agenthttp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"satori/internal/hls"
	"satori/internal/platform/metrics"
	"satori/internal/segment"
)

var errExclusiveParams = errors.New("last is mutually exclusive with since and until")

// IndexReader is the read side of segment.Index that the handler needs.
type IndexReader interface {
	Window(since, until *time.Time) []segment.Segment
}

// Handler serves one camera's playlist, segments, frame and player routes.
type Handler struct {
	idx            IndexReader
	videoDirectory string
	log            *slog.Logger
	metrics        *metrics.Agent
}

// NewHandler returns a Handler backed by idx, serving segment and frame
// files out of videoDirectory. m may be nil; none of the handler's routes
// record to it.
func NewHandler(idx IndexReader, videoDirectory string, log *slog.Logger, m *metrics.Agent) *Handler {
	return &Handler{idx: idx, videoDirectory: videoDirectory, log: log, metrics: m}
}

// Playlist handles GET /stream.m3u8 (alias /hls).
func (h *Handler) Playlist(w http.ResponseWriter, r *http.Request) {
	since, until, err := parseWindow(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	segs := h.idx.Window(since, until)
	endlist := false
	body := hls.Build(segs, 0, endlist)

	w.Header().Set("Content-Type", hls.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// parseWindow resolves since/until/last query params per the mutual
// exclusivity rule: last with either since or until is a 400.
func parseWindow(r *http.Request) (since, until *time.Time, err error) {
	q := r.URL.Query()
	lastStr := q.Get("last")
	sinceStr := q.Get("since")
	untilStr := q.Get("until")

	if lastStr != "" && (sinceStr != "" || untilStr != "") {
		return nil, nil, errExclusiveParams
	}

	if lastStr != "" {
		d, err := time.ParseDuration(lastStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid last: %w", err)
		}
		s := time.Now().Add(-d)
		return &s, nil, nil
	}

	if sinceStr != "" {
		t, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid since: %w", err)
		}
		since = &t
	}

	if untilStr != "" {
		t, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid until: %w", err)
		}
		until = &t
	}

	return since, until, nil
}

// Segment handles GET /segments/{filename}, serving raw TS bytes with Range support.
func (h *Handler) Segment(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filepath.Base(filename) != filename {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.serveFile(w, r, filepath.Join(h.videoDirectory, filename))
}

// Frame handles GET /frame.jpg, serving the latest still frame.
func (h *Handler) Frame(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, filepath.Join(h.videoDirectory, "frame.jpg"))
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, path string) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("open file failed", slog.String("path", path), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		h.log.Error("stat file failed", slog.String("path", path), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	size := stat.Size()
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rng, err := parseRange(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if err != nil && !errors.Is(err, ErrInvalidRange) {
		h.log.Error("range parse failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if rng == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", rng.ContentLength()))
	w.Header().Set("Content-Range", rng.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(rng.Start, io.SeekStart); err != nil {
		h.log.Error("seek failed", slog.String("error", err.Error()))
		return
	}
	io.CopyN(w, file, rng.ContentLength())
}

// Player handles GET /player, passing since/until straight through to the
// embedded player page's own playlist request. The player content itself
// stays out of scope; only the pass-through behavior is implemented here.
func (h *Handler) Player(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	until := r.URL.Query().Get("until")

	playlistURL := "/stream.m3u8"
	if since != "" || until != "" {
		q := make([]string, 0, 2)
		if since != "" {
			q = append(q, "since="+since)
		}
		if until != "" {
			q = append(q, "until="+until)
		}
		playlistURL += "?" + q[0]
		for _, extra := range q[1:] {
			playlistURL += "&" + extra
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<!doctype html><html><body><video src=%q controls autoplay></video></body></html>", playlistURL)
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
