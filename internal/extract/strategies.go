package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minTextRunLen filters out stray labels and navigation crumbs when
// harvesting text runs from candidate elements.
const minTextRunLen = 10

// Strategy is one independent attempt at locating workout text in a parsed
// document. Strategies are tried in order; the first non-empty result wins.
type Strategy interface {
	Name() string
	Attempt(doc *goquery.Document) (string, bool)
}

// defaultStrategies is the fallback chain applied when the embedded state
// did not yield workout text: known content selectors first, then headings,
// then pattern matching over the flattened main-content text.
func defaultStrategies() []Strategy {
	return []Strategy{
		selectorStrategy{name: "workout-testid", selector: `[data-testid*='workout']`},
		selectorStrategy{name: "workout-content-class", selector: ".workout-content"},
		selectorStrategy{name: "wod-content-class", selector: ".wod-content"},
		headingStrategy{},
		patternStrategy{},
	}
}

// selectorStrategy harvests text runs from every element matching a CSS
// selector.
type selectorStrategy struct {
	name     string
	selector string
}

func (s selectorStrategy) Name() string { return s.name }

func (s selectorStrategy) Attempt(doc *goquery.Document) (string, bool) {
	var parts []string
	doc.Find(s.selector).Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > minTextRunLen {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// headingStrategy looks for headings announcing the workout and collects
// the text of the sibling elements that follow them.
type headingStrategy struct{}

func (headingStrategy) Name() string { return "workout-heading" }

func (headingStrategy) Attempt(doc *goquery.Document) (string, bool) {
	var parts []string
	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		if !strings.Contains(heading.Text(), "Workout") {
			return
		}
		if text := strings.TrimSpace(heading.Text()); len(text) > minTextRunLen {
			parts = append(parts, text)
		}
		heading.NextAll().Each(func(_ int, sib *goquery.Selection) {
			if text := strings.TrimSpace(sib.Text()); len(text) > minTextRunLen {
				parts = append(parts, text)
			}
		})
	})
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// Line-oriented patterns recognizing workout notation in free text:
// workout headers, scheme markers (rounds/AMRAP/EMOM/RFT), and
// rep-and-unit numerics.
var workoutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^.*\b(?:workout|wod)\b.*$`),
	regexp.MustCompile(`(?im)^.*\b(?:rounds?|time|amrap|emom|rft)\b.*$`),
	regexp.MustCompile(`(?im)^.*\d+\s*(?:reps|rounds?|cal|lb|kg|m)\b.*$`),
}

// patternStrategy is the last resort: flatten the main content region to
// text and scan it line-by-line with the workout patterns. The first
// pattern producing any match wins.
type patternStrategy struct{}

func (patternStrategy) Name() string { return "pattern-scan" }

func (patternStrategy) Attempt(doc *goquery.Document) (string, bool) {
	region := doc.Find("main").First()
	if region.Length() == 0 {
		region = doc.Find(`div[class*='content']`).First()
	}
	if region.Length() == 0 {
		return "", false
	}
	text := flattenText(region)
	for _, pattern := range workoutPatterns {
		matches := pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		var lines []string
		for _, m := range matches {
			if trimmed := strings.TrimSpace(m); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) > 0 {
			return strings.Join(lines, "\n"), true
		}
	}
	return "", false
}
