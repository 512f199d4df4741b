// Package fetcher defines the page-fetching contract used by the crawl
// controller, plus the retry wrapper that implements backoff between
// attempts.
package fetcher

import (
	"context"
	"time"
)

// Response is the result returned by a Fetcher implementation.
type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher fetches a URL and returns the raw markup plus metadata. A non-2xx
// status is reported as an error.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Response, error)
}
