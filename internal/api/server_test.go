package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wodarchive/wodcrawler/internal/progress"
	"github.com/wodarchive/wodcrawler/internal/progress/sinks"
)

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := NewServer(prometheus.NewRegistry(), zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.NotEmpty(t, body["status"], path)
	}
}

func TestMetricsEndpointServesProgressCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := sinks.NewPrometheusSink(reg)
	require.NoError(t, err)
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{
		{SessionID: uuid.New(), TS: time.Now().UTC(), Stage: progress.StagePageSaved, Date: "251115"},
	}))

	srv := NewServer(reg, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "wodcrawler_pages_saved_total 1")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer(prometheus.NewRegistry(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, "127.0.0.1:0")
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
