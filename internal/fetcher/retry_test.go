package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedFetcher struct {
	calls     int
	failUntil int
	err       error
}

func (s *scriptedFetcher) Fetch(_ context.Context, url string) (Response, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return Response{}, s.err
	}
	return Response{URL: url, StatusCode: 200, Body: []byte("ok")}, nil
}

func TestBackoffPolicyGrowth(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(4, 2*time.Second)
	assert.Equal(t, 2*time.Second, p.Backoff(0))
	assert.Equal(t, 4*time.Second, p.Backoff(1))
	assert.Equal(t, 8*time.Second, p.Backoff(2))
}

func TestBackoffPolicyCap(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(10, time.Minute)
	assert.Equal(t, 2*time.Minute, p.Backoff(8))
}

func TestBackoffPolicyShouldRetry(t *testing.T) {
	t.Parallel()

	p := NewBackoffPolicy(3, time.Second)
	someErr := errors.New("boom")

	assert.True(t, p.ShouldRetry(someErr, 0))
	assert.True(t, p.ShouldRetry(someErr, 1))
	assert.False(t, p.ShouldRetry(someErr, 2), "last attempt must not retry")
	assert.False(t, p.ShouldRetry(nil, 0))
	assert.False(t, p.ShouldRetry(context.Canceled, 0))
	assert.False(t, p.ShouldRetry(context.DeadlineExceeded, 0))
}

func TestRetryingRecoversAfterFailures(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{failUntil: 2, err: errors.New("transient")}
	r := NewRetrying(inner, NewBackoffPolicy(3, time.Millisecond), zap.NewNop())

	resp, err := r.Fetch(context.Background(), "https://example.com/251115")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestRetryingExhaustsAttempts(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{failUntil: 10, err: errors.New("down")}
	r := NewRetrying(inner, NewBackoffPolicy(3, time.Millisecond), zap.NewNop())

	_, err := r.Fetch(context.Background(), "https://example.com/251115")
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
	assert.ErrorContains(t, err, "after 3 attempts")
}

func TestRetryingStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedFetcher{failUntil: 10, err: context.Canceled}
	r := NewRetrying(inner, NewBackoffPolicy(3, time.Millisecond), zap.NewNop())

	_, err := r.Fetch(ctx, "https://example.com/251115")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
