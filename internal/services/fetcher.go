package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultFetchRetries = 3
	defaultFetchTimeout = 30 * time.Second
)

// Fetcher performs HTTP requests with a per-attempt timeout and exponential
// backoff. Success (2xx) and client errors (4xx) return immediately; a
// malformed request will not improve on retry. Timeouts and server errors
// (5xx) are retried with 2s, 4s, 8s waits between attempts.
//
// The backoff sleep is cancellable only by the request context; worst-case
// latency is bounded by timeout*maxRetries plus the backoff delays.
type Fetcher struct {
	client     *resty.Client
	maxRetries int

	// backoff returns the wait before the attempt after `attempt`
	// (1-indexed). Overridable so tests can scale the delays.
	backoff func(attempt int) time.Duration
}

// NewFetcher creates a fetcher. Non-positive arguments fall back to
// 3 retries and a 30 second per-attempt timeout.
func NewFetcher(maxRetries int, timeout time.Duration) *Fetcher {
	if maxRetries <= 0 {
		maxRetries = defaultFetchRetries
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)

	return &Fetcher{
		client:     client,
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
	}
}

// defaultBackoff waits 2^attempt seconds: 2s, 4s, 8s for the default of
// three retries.
func defaultBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Get fetches url, retrying per the fetcher's policy. The returned response
// has a 2xx or 4xx status; callers decide what a 4xx means for them.
func (f *Fetcher) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		req := f.client.R().SetContext(ctx)
		if len(headers) > 0 {
			req.SetHeaders(headers)
		}

		resp, err := req.Get(url)
		if err == nil {
			if resp.StatusCode() < 500 {
				return resp, nil
			}
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode())
		} else {
			lastErr = err
		}

		if attempt < f.maxRetries {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			case <-time.After(f.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", f.maxRetries, lastErr)
}
