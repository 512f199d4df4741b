package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wodarchive/wodcrawler/internal/progress"
)

func TestPrometheusSinkCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	id := uuid.New()
	now := time.Now().UTC()
	batch := []progress.Event{
		{SessionID: id, TS: now, Stage: progress.StageSessionStart},
		{SessionID: id, TS: now, Stage: progress.StageFetchDone, StatusClass: progress.Status2xx, Bytes: 2048, Dur: 120 * time.Millisecond},
		{SessionID: id, TS: now, Stage: progress.StagePageSaved, Date: "251115"},
		{SessionID: id, TS: now, Stage: progress.StageIndexFlush},
		{SessionID: id, TS: now, Stage: progress.StageSessionDone, Dur: 3 * time.Second},
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.sessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.sessionsCompleted.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.fetches.WithLabelValues("2xx")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(sink.fetchBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.pagesSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.indexFlushes))
}

func TestPrometheusSinkErrorResult(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	evt := progress.Event{
		SessionID: uuid.New(),
		TS:        time.Now().UTC(),
		Stage:     progress.StageSessionError,
		Dur:       time.Second,
		Note:      "fetch failure",
	}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{evt}))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.sessionsCompleted.WithLabelValues("error")))
}

func TestPrometheusSinkDoubleRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}
