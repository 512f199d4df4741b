package progress

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sink consumes progress events. Implementations must tolerate being
// called with the same event more than once and must not retain the slice.
type Sink interface {
	Consume(ctx context.Context, batch []Event) error
	Close(ctx context.Context) error
}

// Hub fans events out to registered sinks. The crawl is sequential and
// emits a handful of events per page, so dispatch is synchronous; a slow
// sink is bounded by the per-sink timeout rather than buffered away.
type Hub struct {
	sinks       []Sink
	sinkTimeout time.Duration
	logger      *zap.Logger
}

const defaultSinkTimeout = 10 * time.Second

// NewHub builds a Hub over the supplied sinks.
func NewHub(logger *zap.Logger, sinks ...Sink) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sinks:       append([]Sink(nil), sinks...),
		sinkTimeout: defaultSinkTimeout,
		logger:      logger,
	}
}

// Emit validates the event and hands it to every sink. Invalid events are
// discarded with a debug log; sink failures are logged and never propagate
// to the crawl loop.
func (h *Hub) Emit(evt Event) {
	if h == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	batch := []Event{evt}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.sinkTimeout)
		if err := sink.Consume(ctx, batch); err != nil {
			h.logger.Warn("progress sink consume failed", zap.Error(err))
		}
		cancel()
	}
}

// Close closes every sink. It is called once after the crawl reaches a
// terminal state and the final index flush has run.
func (h *Hub) Close(ctx context.Context) error {
	if h == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, sink := range h.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			h.logger.Warn("progress sink close failed", zap.Error(err))
		}
	}
	return nil
}
