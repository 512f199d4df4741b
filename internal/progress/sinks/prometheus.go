package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wodarchive/wodcrawler/internal/progress"
)

// PrometheusSink exports crawl progress metrics. It owns all collectors
// for session lifecycle, fetch completions and persisted pages.
type PrometheusSink struct {
	sessionsStarted   prometheus.Counter
	sessionsCompleted *prometheus.CounterVec
	sessionRuntime    *prometheus.HistogramVec

	fetches       *prometheus.CounterVec
	fetchBytes    prometheus.Counter
	fetchDuration *prometheus.HistogramVec

	pagesSaved   prometheus.Counter
	indexFlushes prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wodcrawler_sessions_started_total",
			Help: "Total crawl sessions that have started.",
		}),
		sessionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wodcrawler_sessions_completed_total",
			Help: "Total crawl sessions completed partitioned by result.",
		}, []string{"result"}),
		sessionRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wodcrawler_session_runtime_seconds",
			Help:    "Wall time per completed crawl session.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"result"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wodcrawler_fetches_total",
			Help: "Fetch completions partitioned by status class.",
		}, []string{"status_class"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wodcrawler_fetch_bytes_total",
			Help: "Bytes downloaded across all fetches.",
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wodcrawler_fetch_duration_seconds",
			Help:    "Fetch duration partitioned by status class.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"status_class"}),
		pagesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wodcrawler_pages_saved_total",
			Help: "Workout records persisted to disk.",
		}),
		indexFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wodcrawler_index_flushes_total",
			Help: "Times the cumulative index file was rewritten.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.sessionsStarted,
		s.sessionsCompleted,
		s.sessionRuntime,
		s.fetches,
		s.fetchBytes,
		s.fetchDuration,
		s.pagesSaved,
		s.indexFlushes,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageSessionStart:
		s.sessionsStarted.Inc()
	case progress.StageSessionDone:
		s.sessionsCompleted.WithLabelValues("success").Inc()
		s.observeRuntime(evt, "success")
	case progress.StageSessionError:
		s.sessionsCompleted.WithLabelValues("error").Inc()
		s.observeRuntime(evt, "error")
	case progress.StageFetchDone:
		s.handleFetchEvent(evt)
	case progress.StagePageSaved:
		s.pagesSaved.Inc()
	case progress.StageIndexFlush:
		s.indexFlushes.Inc()
	}
}

func (s *PrometheusSink) observeRuntime(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.sessionRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) handleFetchEvent(evt progress.Event) {
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	s.fetches.WithLabelValues(statusClass).Inc()
	if evt.Bytes > 0 {
		s.fetchBytes.Add(float64(evt.Bytes))
	}
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(statusClass).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
