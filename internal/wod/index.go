package wod

import (
	"sort"
	"time"
)

// Stats accumulates session counters for one crawl invocation. It is
// threaded explicitly through the controller and discarded at exit after
// one final index flush.
type Stats struct {
	TotalScraped   int       `json:"total_scraped"`
	Errors         int       `json:"errors"`
	Skipped        int       `json:"skipped"`
	StartTime      time.Time `json:"start_time"`
	ExtractedDates []string  `json:"extracted_dates"`
}

// Index summarizes every record persisted during the session. It is
// rebuilt wholesale on each flush, never appended to.
type Index struct {
	LastUpdated    time.Time `json:"last_updated"`
	TotalWorkouts  int       `json:"total_workouts"`
	ExtractedDates []string  `json:"extracted_dates"`
	Stats          Stats     `json:"stats"`
}

// BuildIndex derives an Index from the current session statistics with
// the date set sorted ascending.
func BuildIndex(stats Stats, now time.Time) Index {
	dates := append([]string(nil), stats.ExtractedDates...)
	sort.Strings(dates)
	return Index{
		LastUpdated:    now,
		TotalWorkouts:  stats.TotalScraped,
		ExtractedDates: dates,
		Stats:          stats,
	}
}
