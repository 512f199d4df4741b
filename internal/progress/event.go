// Package progress defines the event stream emitted by the crawl
// controller and the sink interface consuming it.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageSessionStart Stage = "SESSION_START"
	StageSessionDone  Stage = "SESSION_DONE"
	StageSessionError Stage = "SESSION_ERROR"
	StageFetchDone    Stage = "FETCH_DONE"
	StagePageSaved    Stage = "PAGE_SAVED"
	StageIndexFlush   Stage = "INDEX_FLUSH"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for fetch completions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of crawl progress.
type Event struct {
	// SessionID identifies one crawl invocation.
	SessionID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Date is the YYMMDD code of the page the event concerns, if any.
	Date string
	// URL is the optional page URL.
	URL string
	// Bytes carries the response size for fetch completions.
	Bytes int64
	// StatusClass groups HTTP response codes for fetch completions.
	StatusClass StatusClass
	// Dur captures latency for fetches and total runtime for session ends.
	Dur time.Duration
	// Note lets emitters attach low-volume context (e.g. a terminal reason).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.SessionID == uuid.Nil {
		return errors.New("session id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageSessionStart, StageSessionDone, StageSessionError, StageIndexFlush:
	case StageFetchDone:
		if e.StatusClass == "" {
			return errors.New("fetch done requires status class")
		}
	case StagePageSaved:
		if e.Date == "" {
			return errors.New("page saved requires date")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// ClassifyStatus groups HTTP status codes for fetch events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
