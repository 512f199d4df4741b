// Package scraper drives the crawl: fetch a daily workout page, extract a
// record, persist it, then follow the page's "previous day" link backward
// until a stop condition is met. The loop is fully sequential by design;
// one page is in flight at a time out of politeness to the origin.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wodarchive/wodcrawler/internal/archive"
	"github.com/wodarchive/wodcrawler/internal/extract"
	"github.com/wodarchive/wodcrawler/internal/fetcher"
	"github.com/wodarchive/wodcrawler/internal/progress"
	"github.com/wodarchive/wodcrawler/internal/state"
	"github.com/wodarchive/wodcrawler/internal/wod"
)

// indexFlushInterval is how many saves pass between periodic index
// rewrites. The index is always flushed once more on termination.
const indexFlushInterval = 10

// Terminal reasons reported in the session summary.
const (
	reasonEndDate       = "reached end date"
	reasonFetchFailure  = "fetch failure"
	reasonNoEarlierData = "no earlier data"
	reasonMaxCount      = "max count reached"
	reasonCanceled      = "canceled"
)

// Clock supplies timestamps; swapped for a fixed clock in tests.
type Clock interface {
	Now() time.Time
}

// Config holds the settings for one crawl session.
type Config struct {
	// BaseURL is the origin previous-day links are resolved against.
	BaseURL string
	// StartURL is the first page to fetch.
	StartURL string
	// EndDate, when set, stops the crawl before fetching any page whose
	// date code is strictly earlier.
	EndDate string
	// MaxCount caps the number of records persisted; zero means unbounded.
	MaxCount int
	// Delay is the blocking inter-request pause.
	Delay time.Duration
}

// Scraper is the crawl controller.
type Scraper struct {
	cfg       Config
	base      *url.URL
	fetcher   fetcher.Fetcher
	extractor *extract.Extractor
	store     *archive.Store
	clock     Clock
	hub       *progress.Hub
	logger    *zap.Logger
}

// New builds a Scraper. The hub may be nil when no progress sinks are
// configured.
func New(
	cfg Config,
	f fetcher.Fetcher,
	extractor *extract.Extractor,
	store *archive.Store,
	clock Clock,
	hub *progress.Hub,
	logger *zap.Logger,
) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:       cfg,
		base:      base,
		fetcher:   f,
		extractor: extractor,
		store:     store,
		clock:     clock,
		hub:       hub,
		logger:    logger,
	}, nil
}

// Run executes the crawl until a terminal state and returns the session
// statistics. Whatever the terminal state, the index is flushed one final
// time before Run returns; partial results already on disk stay there.
func (s *Scraper) Run(ctx context.Context) (wod.Stats, error) {
	sessionID := uuid.New()
	stats := wod.Stats{StartTime: s.clock.Now(), ExtractedDates: []string{}}

	s.logger.Info("starting crawl",
		zap.String("session_id", sessionID.String()),
		zap.String("start_url", s.cfg.StartURL),
		zap.String("end_date", s.cfg.EndDate),
		zap.Int("max_count", s.cfg.MaxCount),
	)
	s.emit(progress.Event{SessionID: sessionID, TS: s.clock.Now(), Stage: progress.StageSessionStart, URL: s.cfg.StartURL})

	reason, runErr := s.crawl(ctx, sessionID, &stats)

	// The final flush must run on every terminal path, including
	// cancellation, so it does not use the run context.
	s.flushIndex(context.Background(), sessionID, stats)

	elapsed := s.clock.Now().Sub(stats.StartTime)
	s.logger.Info("crawl finished",
		zap.String("reason", reason),
		zap.Duration("elapsed", elapsed),
		zap.Int("total_scraped", stats.TotalScraped),
		zap.Int("errors", stats.Errors),
	)

	endStage := progress.StageSessionDone
	if runErr != nil {
		endStage = progress.StageSessionError
	}
	s.emit(progress.Event{SessionID: sessionID, TS: s.clock.Now(), Stage: endStage, Dur: elapsed, Note: reason})
	return stats, runErr
}

// crawl runs the controller state machine and returns the terminal reason.
func (s *Scraper) crawl(ctx context.Context, sessionID uuid.UUID, stats *wod.Stats) (string, error) {
	currentURL := s.cfg.StartURL
	for currentURL != "" {
		if s.cfg.MaxCount > 0 && stats.TotalScraped >= s.cfg.MaxCount {
			return reasonMaxCount, nil
		}
		if err := ctx.Err(); err != nil {
			return reasonCanceled, err
		}
		if s.pastEndDate(currentURL) {
			s.logger.Info("reached end date; stopping", zap.String("url", currentURL), zap.String("end_date", s.cfg.EndDate))
			return reasonEndDate, nil
		}

		rec, err := s.capture(ctx, sessionID, currentURL)
		if err != nil {
			stats.Errors++
			s.logger.Error("failed to extract record; halting crawl",
				zap.String("url", currentURL),
				zap.Error(err),
			)
			return reasonFetchFailure, fmt.Errorf("extract record from %s: %w", currentURL, err)
		}

		if _, err := s.store.SaveRecord(ctx, rec); err != nil {
			// A persistence failure costs one record, not the crawl.
			stats.Errors++
			s.logger.Error("failed to save record", zap.String("date", rec.Date), zap.Error(err))
		} else {
			stats.TotalScraped++
			stats.ExtractedDates = append(stats.ExtractedDates, rec.Date)
			s.emit(progress.Event{
				SessionID: sessionID,
				TS:        s.clock.Now(),
				Stage:     progress.StagePageSaved,
				Date:      rec.Date,
				URL:       currentURL,
			})
			if stats.TotalScraped%indexFlushInterval == 0 {
				s.flushIndex(ctx, sessionID, *stats)
			}
		}

		previous := ""
		if rec.Navigation != nil {
			previous = rec.Navigation.Previous
		}
		if previous == "" {
			s.logger.Info("no previous link found; reached the oldest available workout")
			return reasonNoEarlierData, nil
		}
		nextURL, ok := s.resolve(previous)
		if !ok {
			s.logger.Warn("previous link is unusable; stopping", zap.String("previous", previous))
			return reasonNoEarlierData, nil
		}

		s.logger.Debug("rate limiting before next request",
			zap.Duration("delay", s.cfg.Delay),
			zap.String("next_url", nextURL),
		)
		select {
		case <-time.After(s.cfg.Delay):
		case <-ctx.Done():
			return reasonCanceled, ctx.Err()
		}
		currentURL = nextURL
	}
	return reasonNoEarlierData, nil
}

// capture fetches one page and derives its record. The embedded state is
// best-effort: a missing or unparseable state degrades to markup-only
// extraction rather than failing the record.
func (s *Scraper) capture(ctx context.Context, sessionID uuid.UUID, pageURL string) (wod.Record, error) {
	dateCode, ok := wod.DateFromURL(pageURL)
	if !ok {
		return wod.Record{}, fmt.Errorf("no date code in url %s", pageURL)
	}
	s.logger.Info("extracting workout", zap.String("date", dateCode), zap.String("url", pageURL))

	resp, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return wod.Record{}, err
	}
	s.emit(progress.Event{
		SessionID:   sessionID,
		TS:          s.clock.Now(),
		Stage:       progress.StageFetchDone,
		Date:        dateCode,
		URL:         pageURL,
		Bytes:       int64(len(resp.Body)),
		StatusClass: progress.ClassifyStatus(resp.StatusCode),
		Dur:         resp.Duration,
	})

	st, err := state.Extract(resp.Body)
	if err != nil {
		s.logger.Warn("embedded state unavailable", zap.String("url", pageURL), zap.Error(err))
		st = nil
	}
	content := s.extractor.Extract(resp.Body, st)
	return wod.NewRecord(dateCode, pageURL, s.clock.Now(), content), nil
}

// pastEndDate reports whether the URL's date code is strictly earlier than
// the configured bound. YYMMDD codes compare lexically.
func (s *Scraper) pastEndDate(pageURL string) bool {
	if s.cfg.EndDate == "" {
		return false
	}
	code, ok := wod.DateFromURL(pageURL)
	return ok && code < s.cfg.EndDate
}

func (s *Scraper) resolve(previous string) (string, bool) {
	ref, err := url.Parse(previous)
	if err != nil {
		return "", false
	}
	return s.base.ResolveReference(ref).String(), true
}

func (s *Scraper) flushIndex(ctx context.Context, sessionID uuid.UUID, stats wod.Stats) {
	idx := wod.BuildIndex(stats, s.clock.Now())
	if err := s.store.WriteIndex(ctx, idx); err != nil {
		s.logger.Error("failed to update index", zap.Error(err))
		return
	}
	s.emit(progress.Event{SessionID: sessionID, TS: s.clock.Now(), Stage: progress.StageIndexFlush})
}

func (s *Scraper) emit(evt progress.Event) {
	s.hub.Emit(evt)
}
