package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxPlaylistBytes caps the size of a fetched playlist body.
const MaxPlaylistBytes = 64 << 20

// FetchM3U downloads the playlist at url with a single GET and parses it.
// There is no retry. A zero timeout leaves the deadline to ctx and the transport.
func FetchM3U(ctx context.Context, url string, userAgent string, timeout time.Duration) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	entries, err := ParseM3U(io.LimitReader(resp.Body, MaxPlaylistBytes))
	if err != nil {
		return nil, fmt.Errorf("ParseM3U: %w", err)
	}
	return entries, nil
}
