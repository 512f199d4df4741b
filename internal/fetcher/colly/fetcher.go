// Package collyfetcher implements fetcher.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/wodarchive/wodcrawler/internal/fetcher"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements fetcher.Fetcher using the Colly collector. One page is
// in flight at a time by design; the base collector is cloned per request.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher with a pooled HTTP transport.
func New(cfg Config) *Fetcher {
	// Synchronous collection is colly's default. The explicit
	// colly.Async(false) option is avoided because colly < v2.2.0
	// ignores the argument and turns async on.
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	// Retries revisit the same URL; the shared visit cache must not veto them.
	c.AllowURLRevisit = true
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// visitResult is the completed outcome of one collector visit. It crosses
// the goroutine boundary as a single value; the visit goroutine owns all
// callback state until it sends.
type visitResult struct {
	resp fetcher.Response
	err  error
}

// Fetch executes a single HTTP GET using Colly. A non-2xx status surfaces
// as an error from the collector.
func (f *Fetcher) Fetch(ctx context.Context, url string) (fetcher.Response, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	done := make(chan visitResult, 1)
	go func() {
		done <- visit(collector, url)
	}()

	select {
	case <-ctx.Done():
		// The visit goroutine still drains into the buffered channel;
		// its state is never touched from here.
		return fetcher.Response{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case res := <-done:
		return res.resp, res.err
	}
}

// visit runs one collector pass to completion. Collector callbacks fire
// synchronously inside Visit, so every write below happens before the
// return.
func visit(collector *colly.Collector, url string) visitResult {
	var (
		result   fetcher.Response
		fetchErr error
	)
	start := time.Now()

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})
	collector.OnResponse(func(r *colly.Response) {
		result = fetcher.Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := collector.Visit(url); err != nil {
		return visitResult{
			resp: fetcher.Response{StatusCode: result.StatusCode},
			err:  fmt.Errorf("colly visit failed: %w", err),
		}
	}
	if fetchErr != nil {
		return visitResult{
			resp: fetcher.Response{StatusCode: result.StatusCode},
			err:  fmt.Errorf("colly response failed: %w", fetchErr),
		}
	}
	return visitResult{resp: result}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
