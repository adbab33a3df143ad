// Package fetch is the Archiver's HTTP client against Agent base URLs: list
// candidate segments for a time window, then download each one.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"satori/internal/hls"
)

// Client fetches playlists and segment bytes from one Agent base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New returns a Client against baseURL, timing out each request after timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}, baseURL: baseURL}
}

// Playlist fetches the agent's playlist windowed to [since, until) and
// returns the parsed entries.
func (c *Client) Playlist(ctx context.Context, since, until time.Time) ([]hls.Entry, error) {
	url := fmt.Sprintf("%s/stream.m3u8?since=%s&until=%s", c.baseURL, since.UTC().Format(time.RFC3339), until.UTC().Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build playlist request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: playlist request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: playlist request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read playlist body: %w", err)
	}

	return hls.Parse(body)
}

// ErrNotFound is returned by Segment when the agent responds 404, which the
// caller treats as retryable (the segment may have been evicted before fetch).
var ErrNotFound = fmt.Errorf("fetch: segment not found")

// Segment downloads one segment's raw bytes by filename.
func (c *Client) Segment(ctx context.Context, filename string) ([]byte, error) {
	url := fmt.Sprintf("%s/segments/%s", c.baseURL, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build segment request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: segment request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: segment request: unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
