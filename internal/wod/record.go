// Package wod defines the core types shared across the crawl pipeline:
// the per-day workout record, the cumulative index, and session statistics.
package wod

import "time"

// Movement is a reference to a movement-glossary page linked from a workout.
type Movement struct {
	Name string `json:"name"`
	Link string `json:"link"`
	URL  string `json:"url"`
}

// Navigation carries the previous/next day links published with a workout.
type Navigation struct {
	Previous      string `json:"previous,omitempty"`
	Next          string `json:"next,omitempty"`
	PreviousLabel string `json:"previous_label,omitempty"`
	NextLabel     string `json:"next_label,omitempty"`
}

// FeaturedContent is the tagged extra payload some days carry.
type FeaturedContent struct {
	Type    string         `json:"type,omitempty"`
	Content map[string]any `json:"content,omitempty"`
}

// Content holds everything the extractor can derive from one page. Every
// field is optional; extraction degrades rather than fails.
type Content struct {
	Title             string           `json:"title,omitempty"`
	Content           string           `json:"content,omitempty"`
	Movements         []Movement       `json:"movements"`
	SocialDescription string           `json:"social_description,omitempty"`
	SocialImage       string           `json:"social_image,omitempty"`
	CommentTopics     []string         `json:"comment_topics,omitempty"`
	FeaturedContent   *FeaturedContent `json:"featured_content,omitempty"`
	WODData           map[string]any   `json:"wod_data,omitempty"`
	Navigation        *Navigation      `json:"navigation,omitempty"`
}

// Record is the unit of persistence: one workout per calendar day.
// Date is always present and matches the URL the page was fetched from;
// everything else tolerates absence. Records are never mutated after
// creation.
type Record struct {
	Date        string    `json:"date"`
	URL         string    `json:"url"`
	ExtractedAt time.Time `json:"extracted_at"`

	Content

	DateISO       string `json:"date_iso,omitempty"`
	DateFormatted string `json:"date_formatted,omitempty"`
}

// NewRecord assembles a Record for a page fetched at the given instant.
// Date conversion failures leave the derived date fields empty.
func NewRecord(dateCode, url string, extractedAt time.Time, content Content) Record {
	rec := Record{
		Date:        dateCode,
		URL:         url,
		ExtractedAt: extractedAt,
		Content:     content,
	}
	if day, ok := ParseDateCode(dateCode); ok {
		rec.DateISO = day.Format("2006-01-02T15:04:05")
		rec.DateFormatted = day.Format("January 02, 2006")
	}
	return rec
}
