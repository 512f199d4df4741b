package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// BackoffPolicy decides whether a failed fetch is retried and how long to
// wait before the next attempt. The wait grows as base x 2^attempt, capped
// at maxDelay. The base doubles as the crawl's inter-request delay so a
// struggling origin is never hit faster than a healthy one.
type BackoffPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewBackoffPolicy builds a policy allowing maxRetries attempts with the
// given base delay. Non-positive arguments fall back to sane defaults.
func NewBackoffPolicy(maxRetries int, baseDelay time.Duration) *BackoffPolicy {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &BackoffPolicy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   2 * time.Minute,
	}
}

// MaxRetries reports the attempt budget.
func (p *BackoffPolicy) MaxRetries() int {
	return p.maxRetries
}

// ShouldRetry decides whether the error is worth another attempt.
// Context cancellation is never retried.
func (p *BackoffPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxRetries-1 {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Backoff returns the wait duration before attempt+1.
func (p *BackoffPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	return time.Duration(delay)
}

// Retrying wraps a Fetcher with the backoff policy. Exhausting the attempt
// budget returns the last error; the caller decides whether that halts the
// crawl.
type Retrying struct {
	inner  Fetcher
	policy *BackoffPolicy
	logger *zap.Logger
}

// NewRetrying builds the retry wrapper.
func NewRetrying(inner Fetcher, policy *BackoffPolicy, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{inner: inner, policy: policy, logger: logger}
}

// Fetch attempts the inner fetch up to the policy's budget, sleeping the
// backoff between attempts. The sleep honors context cancellation.
func (r *Retrying) Fetch(ctx context.Context, url string) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxRetries(); attempt++ {
		r.logger.Info("fetching page",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", r.policy.MaxRetries()),
		)
		resp, err := r.inner.Fetch(ctx, url)
		if err == nil {
			r.logger.Info("fetched page",
				zap.String("url", url),
				zap.Int("bytes", len(resp.Body)),
				zap.Duration("dur", resp.Duration),
			)
			return resp, nil
		}
		lastErr = err
		if !r.policy.ShouldRetry(err, attempt) {
			break
		}
		wait := r.policy.Backoff(attempt)
		r.logger.Warn("fetch attempt failed; backing off",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Response{}, fmt.Errorf("fetch backoff canceled: %w", ctx.Err())
		}
	}
	return Response{}, fmt.Errorf("fetch %s after %d attempts: %w", url, r.policy.MaxRetries(), lastErr)
}
