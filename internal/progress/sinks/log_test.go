package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wodarchive/wodcrawler/internal/progress"
)

func TestLogSinkWritesStructuredFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	sink := NewLogSink(zap.New(core))

	id := uuid.New()
	evt := progress.Event{
		SessionID:   id,
		TS:          time.Now().UTC(),
		Stage:       progress.StageFetchDone,
		Date:        "251115",
		URL:         "https://example.test/workout/251115",
		Bytes:       512,
		StatusClass: progress.Status2xx,
		Dur:         90 * time.Millisecond,
	}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{evt}))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, id.String(), fields["session_id"])
	assert.Equal(t, string(progress.StageFetchDone), fields["stage"])
	assert.Equal(t, "251115", fields["date"])
	assert.Equal(t, int64(512), fields["bytes"])
	assert.Equal(t, "2xx", fields["status_class"])
}

func TestLogSinkNilLogger(t *testing.T) {
	t.Parallel()

	sink := NewLogSink(nil)
	require.NoError(t, sink.Consume(context.Background(), nil))
	require.NoError(t, sink.Close(context.Background()))
}
