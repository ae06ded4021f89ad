package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxPayloadBytes caps how much of a dataset response is read.
const maxPayloadBytes = 64 << 20

// HTTPSource fetches the dataset with a GET request. Every request bypasses
// intermediate caches so a reload always sees the published file.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPSource creates a dataset source for url.
func NewHTTPSource(url string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Describe returns the dataset URL.
func (s *HTTPSource) Describe() string {
	return s.url
}

// Fetch downloads the dataset payload.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return nil, fmt.Errorf("dataset request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read dataset response: %w", err)
	}
	if len(body) > maxPayloadBytes {
		return nil, fmt.Errorf("dataset response exceeds %d bytes", maxPayloadBytes)
	}

	s.logger.Debug("dataset downloaded",
		"url", s.url,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	return body, nil
}
