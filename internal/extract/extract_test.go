package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wodarchive/wodcrawler/internal/state"
)

const baseURL = "https://www.crossfit.com"

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(baseURL, zap.NewNop())
	require.NoError(t, err)
	return e
}

func TestExtractFromState(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body>
		<a href="/essentials/air-squat">Air Squat</a>
		<a href="/about">About</a>
	</body></html>`)
	st := &state.State{Pages: &state.Pages{
		Title:          "251115",
		SocialMetaData: &state.SocialMeta{Description: "5 rounds for time", Image: "img.jpg"},
		CommentTopics:  []state.CommentTopic{{Title: "Workout Thread"}},
		Components: []state.Component{{
			Name: "DailyModule",
			Props: state.Props{
				PreviousURL:     "/251114",
				NextURL:         "/251116",
				WorkoutOfTheDay: map[string]any{"scheme": "5 RFT"},
				FeaturedContent: map[string]any{"type": "video"},
			},
		}},
	}}

	content := newExtractor(t).Extract(markup, st)

	assert.Equal(t, "251115", content.Title)
	assert.Equal(t, "5 rounds for time", content.SocialDescription)
	assert.Equal(t, []string{"Workout Thread"}, content.CommentTopics)
	require.NotNil(t, content.Navigation)
	assert.Equal(t, "/251114", content.Navigation.Previous)
	require.NotNil(t, content.FeaturedContent)
	assert.Equal(t, "video", content.FeaturedContent.Type)
	assert.Equal(t, "5 RFT", content.WODData["scheme"])

	require.Len(t, content.Movements, 1)
	assert.Equal(t, "Air Squat", content.Movements[0].Name)
	assert.Equal(t, "/essentials/air-squat", content.Movements[0].Link)
	assert.Equal(t, baseURL+"/essentials/air-squat", content.Movements[0].URL)
}

func TestExtractSelectorStrategy(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body>
		<div class="workout-content">5 rounds for time of: 400m run, 15 thrusters</div>
	</body></html>`)

	content := newExtractor(t).Extract(markup, nil)
	assert.Equal(t, "5 rounds for time of: 400m run, 15 thrusters", content.Content)
}

func TestExtractTestIDSelectorBeatsPatternScan(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body>
		<main>Workout text that the pattern scan would also find here</main>
		<section data-testid="daily-workout-card">21-15-9 reps of deadlifts and burpees</section>
	</body></html>`)

	content := newExtractor(t).Extract(markup, nil)
	assert.Equal(t, "21-15-9 reps of deadlifts and burpees", content.Content)
}

func TestExtractHeadingStrategy(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body><article>
		<h2>Workout of the Day</h2>
		<p>3 rounds: 10 push-ups, 20 sit-ups, 30 squats</p>
	</article></body></html>`)

	content := newExtractor(t).Extract(markup, nil)
	assert.Contains(t, content.Content, "Workout of the Day")
	assert.Contains(t, content.Content, "3 rounds: 10 push-ups")
}

func TestExtractPatternFallback(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body><main>
		<p>Some intro paragraph about the gym.</p>
		<p>AMRAP 20: 5 pull-ups, 10 push-ups, 15 squats</p>
	</main></body></html>`)

	content := newExtractor(t).Extract(markup, nil)
	assert.Contains(t, content.Content, "AMRAP 20")
}

func TestExtractShortRunsFiltered(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body><div class="workout-content">Rest</div></body></html>`)
	content := newExtractor(t).Extract(markup, nil)
	assert.Empty(t, content.Content)
}

func TestExtractNeverFails(t *testing.T) {
	t.Parallel()

	e := newExtractor(t)
	for _, markup := range []string{
		"",
		"<html><body></body></html>",
		"<div><<<<>>>> not really html",
		"plain text with no tags at all",
	} {
		content := e.Extract([]byte(markup), nil)
		assert.Empty(t, content.Content)
		assert.NotNil(t, content.Movements)
		assert.Nil(t, content.Navigation)
	}
}

func TestExtractStateAndMarkupCombine(t *testing.T) {
	t.Parallel()

	markup := []byte(`<html><body>
		<a href="/essentials/deadlift">Deadlift</a>
		<div class="workout-content">30 clean and jerks for time at 135 lb</div>
	</body></html>`)
	st := &state.State{Pages: &state.Pages{Title: "251115"}}

	content := newExtractor(t).Extract(markup, st)
	assert.Equal(t, "251115", content.Title)
	require.Len(t, content.Movements, 1)
	// State never carries free-text content, so the selector chain still runs.
	assert.Equal(t, "30 clean and jerks for time at 135 lb", content.Content)
}
