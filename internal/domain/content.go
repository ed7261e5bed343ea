package domain

import (
	"fmt"
	"time"
)

// Document is a single versioned file as stored by the remote content API.
// Version is opaque and changes on every write; writes must present the
// last observed value or fail with ErrConflict.
type Document struct {
	Body    string
	Version string
}

// HarvestedItem is one normalized news item pulled from a feed source.
// URL is canonical and doubles as the deduplication key.
type HarvestedItem struct {
	Title       string
	URL         string
	Source      string
	Snippet     string
	PublishedAt time.Time // zero when the feed carried no timestamp
}

// Theme is one editorial category from the configured theme set.
type Theme struct {
	Name      string
	SubThemes []string
}

// ClassifiedItem is a harvested item tagged with exactly one theme.
type ClassifiedItem struct {
	HarvestedItem
	Theme     string
	SubThemes []string
}

// Citation points a draft article back at a contributing news item.
type Citation struct {
	Title  string `yaml:"title" json:"title"`
	URL    string `yaml:"url" json:"url"`
	Source string `yaml:"source" json:"source"`
}

// DraftArticle is the synthesizer output for one theme in one weekly run.
type DraftArticle struct {
	Theme     string
	SubThemes []string
	Title     string
	Body      string
	Sources   []Citation
	WeekLabel string
}

// Post is a stored article as read back from the content store.
type Post struct {
	Slug      string
	Title     string
	Theme     string
	SubThemes []string
	WeekLabel string
	Date      string
	Status    string
	Excerpt   string
	Body      string
	Sources   []Citation
}

// Article lifecycle states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// WeekLabel renders the ISO week of t as e.g. "2026-W35"; drafts and
// published paths are keyed by it.
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
