// Package state extracts the JSON-like object the origin site's rendering
// framework embeds into page markup. The object literal is written with
// bare identifier keys, so it is parsed with a tolerant JSON5 decoder
// instead of being "repaired" by pattern substitution.
package state

import (
	"errors"
	"fmt"
	"strings"

	"github.com/titanous/json5"
)

// Marker is the assignment the extractor scans for.
const Marker = "window.__PRELOADED_STATE__"

// ErrNotFound reports that the markup carries no embedded state assignment.
// Callers treat it as "absent", not as a fatal condition.
var ErrNotFound = errors.New("embedded state not found")

// State is the top-level embedded object. Only the parts the pipeline
// consumes are modeled; everything else is ignored by the decoder.
type State struct {
	Pages *Pages `json:"pages"`
}

// Pages holds per-page data: title, social metadata, comment topics and the
// rendered component tree.
type Pages struct {
	Title          string         `json:"title"`
	SocialMetaData *SocialMeta    `json:"socialMetaData"`
	CommentTopics  []CommentTopic `json:"commentTopics"`
	Components     []Component    `json:"components"`
}

// SocialMeta is the social-sharing metadata block.
type SocialMeta struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CommentTopic is one discussion thread attached to the page.
type CommentTopic struct {
	Title string `json:"title"`
}

// Component is one entry of the page's component tree.
type Component struct {
	Name  string `json:"name"`
	Props Props  `json:"props"`
}

// Props carries the component properties the pipeline reads. The daily
// workout module exposes navigation links, the featured-content payload and
// the raw workout-of-the-day data.
type Props struct {
	PreviousURL          string         `json:"previousUrl"`
	NextURL              string         `json:"nextUrl"`
	PreviousDayLabelText string         `json:"previousDayLabelText"`
	NextDayLabelText     string         `json:"nextDayLabelText"`
	FeaturedContent      map[string]any `json:"featuredContent"`
	WorkoutOfTheDay      map[string]any `json:"workoutOfTheDay"`
}

// DailyModule returns the props of the component rendering the daily
// workout, or nil when the page has none.
func (s *State) DailyModule() *Props {
	if s == nil || s.Pages == nil {
		return nil
	}
	for i := range s.Pages.Components {
		if s.Pages.Components[i].Name == "DailyModule" {
			return &s.Pages.Components[i].Props
		}
	}
	return nil
}

// Extract scans the markup for the state assignment, isolates the object
// literal that follows and parses it. It returns ErrNotFound when the
// marker is missing and a parse error when the literal is malformed; both
// are soft failures for the caller.
func Extract(html []byte) (*State, error) {
	literal, err := isolate(string(html))
	if err != nil {
		return nil, err
	}
	var st State
	if err := json5.Unmarshal([]byte(literal), &st); err != nil {
		return nil, fmt.Errorf("parse embedded state: %w", err)
	}
	return &st, nil
}

// isolate locates the object literal assigned to the marker. The scan
// balances braces while honoring string literals and escapes, so brace
// characters inside workout text do not end the literal early.
func isolate(html string) (string, error) {
	at := strings.Index(html, Marker)
	if at < 0 {
		return "", ErrNotFound
	}
	rest := html[at+len(Marker):]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return "", ErrNotFound
	}
	rest = rest[eq+1:]
	open := strings.IndexByte(rest, '{')
	if open < 0 {
		return "", ErrNotFound
	}
	rest = rest[open:]

	depth := 0
	var quote byte
	escaped := false
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i+1], nil
			}
		}
	}
	return "", fmt.Errorf("embedded state literal is unterminated")
}
