// Package extract derives a normalized workout content object from page
// markup and the embedded state. Extraction is heuristic by nature: every
// step degrades to an empty contribution instead of failing the record.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/wodarchive/wodcrawler/internal/state"
	"github.com/wodarchive/wodcrawler/internal/wod"
)

// movementPathFragment identifies anchors into the movement glossary.
const movementPathFragment = "/essentials/"

// Extractor turns raw markup plus optional embedded state into wod.Content.
type Extractor struct {
	baseURL    *url.URL
	strategies []Strategy
	logger     *zap.Logger
}

// New builds an Extractor resolving relative links against baseURL.
func New(baseURL string, logger *zap.Logger) (*Extractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		baseURL:    base,
		strategies: defaultStrategies(),
		logger:     logger,
	}, nil
}

// Extract always succeeds: it returns a partially populated Content rather
// than an error, no matter how broken the markup is. The embedded state is
// authoritative when present; movements are collected from the markup
// regardless; the strategy chain only runs while content is still empty.
func (e *Extractor) Extract(markup []byte, st *state.State) wod.Content {
	content := fromState(st)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		e.logger.Warn("markup parse failed; keeping state-derived fields only", zap.Error(err))
		if content.Movements == nil {
			content.Movements = []wod.Movement{}
		}
		return content
	}

	content.Movements = e.movements(doc)

	if content.Content == "" {
		for _, strat := range e.strategies {
			text, ok := strat.Attempt(doc)
			if !ok {
				continue
			}
			content.Content = text
			e.logger.Debug("content strategy matched", zap.String("strategy", strat.Name()))
			break
		}
	}
	return content
}

// fromState pulls the authoritative fields out of the embedded state.
// A nil or page-less state contributes nothing.
func fromState(st *state.State) wod.Content {
	var content wod.Content
	if st == nil || st.Pages == nil {
		return content
	}
	pages := st.Pages
	content.Title = pages.Title
	if social := pages.SocialMetaData; social != nil {
		content.SocialDescription = social.Description
		content.SocialImage = social.Image
	}
	for _, topic := range pages.CommentTopics {
		content.CommentTopics = append(content.CommentTopics, topic.Title)
	}

	daily := st.DailyModule()
	if daily == nil {
		return content
	}
	if daily.PreviousURL != "" || daily.NextURL != "" ||
		daily.PreviousDayLabelText != "" || daily.NextDayLabelText != "" {
		content.Navigation = &wod.Navigation{
			Previous:      daily.PreviousURL,
			Next:          daily.NextURL,
			PreviousLabel: daily.PreviousDayLabelText,
			NextLabel:     daily.NextDayLabelText,
		}
	}
	if daily.FeaturedContent != nil {
		featured := &wod.FeaturedContent{Content: daily.FeaturedContent}
		if t, ok := daily.FeaturedContent["type"].(string); ok {
			featured.Type = t
		}
		content.FeaturedContent = featured
	}
	content.WODData = daily.WorkoutOfTheDay
	return content
}

// movements collects every anchor into the movement glossary, resolving
// each link against the base origin. Movements supplement the state-derived
// data; they never replace it.
func (e *Extractor) movements(doc *goquery.Document) []wod.Movement {
	movements := []wod.Movement{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !strings.Contains(href, movementPathFragment) {
			return
		}
		movements = append(movements, wod.Movement{
			Name: strings.TrimSpace(sel.Text()),
			Link: href,
			URL:  e.resolve(href),
		})
	})
	return movements
}

func (e *Extractor) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.baseURL.ResolveReference(ref).String()
}

// flattenText renders a selection as one text line per text node, giving
// the pattern strategy line boundaries to anchor on.
func flattenText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		flattenNode(node, &b)
	}
	return b.String()
}

func flattenNode(node *html.Node, b *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
		return
	}
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		flattenNode(child, b)
	}
}
