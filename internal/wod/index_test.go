package wod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildIndexSortsDates(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 16, 12, 0, 0, 0, time.UTC)
	stats := Stats{
		TotalScraped:   3,
		Errors:         1,
		StartTime:      now.Add(-time.Minute),
		ExtractedDates: []string{"251115", "251113", "251114"},
	}

	idx := BuildIndex(stats, now)

	assert.Equal(t, now, idx.LastUpdated)
	assert.Equal(t, 3, idx.TotalWorkouts)
	assert.Equal(t, []string{"251113", "251114", "251115"}, idx.ExtractedDates)
	// BuildIndex must not reorder the session's own slice.
	assert.Equal(t, []string{"251115", "251113", "251114"}, stats.ExtractedDates)
}

func TestBuildIndexEmptySession(t *testing.T) {
	t.Parallel()

	idx := BuildIndex(Stats{}, time.Now())
	assert.Zero(t, idx.TotalWorkouts)
	assert.Empty(t, idx.ExtractedDates)
}
