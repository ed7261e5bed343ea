package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

const (
	defaultCitationLimit = 5
	defaultSubThemeLimit = 3
)

var headingExpr = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// SynthesizerConfig tunes per-theme article generation.
type SynthesizerConfig struct {
	Themes        []domain.Theme
	CitationLimit int
	SubThemeLimit int
	MaxTokens     int
}

// Synthesizer drafts one article per theme from that theme's classified
// items. Themes with no items are skipped; a failed theme is logged and
// the remaining themes still produce drafts.
type Synthesizer struct {
	client        ports.CompletionClient
	themes        []domain.Theme
	citationLimit int
	subThemeLimit int
	maxTokens     int
	logger        *slog.Logger
}

// NewSynthesizer constructs the per-theme synthesizer.
func NewSynthesizer(client ports.CompletionClient, cfg SynthesizerConfig, logger *slog.Logger) *Synthesizer {
	citationLimit := cfg.CitationLimit
	if citationLimit <= 0 {
		citationLimit = defaultCitationLimit
	}
	subThemeLimit := cfg.SubThemeLimit
	if subThemeLimit <= 0 {
		subThemeLimit = defaultSubThemeLimit
	}
	return &Synthesizer{
		client:        client,
		themes:        cfg.Themes,
		citationLimit: citationLimit,
		subThemeLimit: subThemeLimit,
		maxTokens:     cfg.MaxTokens,
		logger:        logger,
	}
}

// Synthesize walks the configured theme set in order and returns at most
// one draft per theme that had classified items.
func (s *Synthesizer) Synthesize(ctx context.Context, items []domain.ClassifiedItem, weekLabel string) []domain.DraftArticle {
	var drafts []domain.DraftArticle
	for _, theme := range s.themes {
		themed := filterByTheme(items, theme.Name)
		if len(themed) == 0 {
			s.debug("no items for theme", "theme", theme.Name)
			continue
		}

		draft, err := s.synthesizeTheme(ctx, theme.Name, themed, weekLabel)
		if err != nil {
			s.warn("synthesis failed", "theme", theme.Name, "error", err)
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

func (s *Synthesizer) synthesizeTheme(ctx context.Context, theme string, items []domain.ClassifiedItem, weekLabel string) (domain.DraftArticle, error) {
	if s.client == nil {
		return domain.DraftArticle{}, fmt.Errorf("theme %s: no completion client configured", theme)
	}

	top := items
	if len(top) > s.citationLimit {
		top = top[:s.citationLimit]
	}

	body, err := s.client.Complete(ctx, s.buildPrompt(theme, top, weekLabel), s.maxTokens)
	if err != nil {
		return domain.DraftArticle{}, fmt.Errorf("theme %s: %w", theme, err)
	}
	body = strings.TrimSpace(body)

	title := fmt.Sprintf("%s: Weekly Insights — %s", theme, weekLabel)
	if match := headingExpr.FindStringSubmatch(body); match != nil {
		title = strings.TrimSpace(match[1])
	}

	citations := make([]domain.Citation, 0, len(top))
	for _, item := range top {
		citations = append(citations, domain.Citation{
			Title:  item.Title,
			URL:    item.URL,
			Source: item.Source,
		})
	}

	return domain.DraftArticle{
		Theme:     theme,
		SubThemes: mergeSubThemes(items, s.subThemeLimit),
		Title:     title,
		Body:      body,
		Sources:   citations,
		WeekLabel: weekLabel,
	}, nil
}

func (s *Synthesizer) buildPrompt(theme string, items []domain.ClassifiedItem, weekLabel string) string {
	var sources strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sources, "Title: %s\nSource: %s\nSnippet: %s\n\n", item.Title, item.Source, item.Snippet)
	}

	return fmt.Sprintf(`You are a senior technology consultant writing for CIOs and technology leaders.

Write an original ~600-word insight article on the theme of %q for the week of %s.

Use these recent news articles as context and inspiration (do not quote or summarise them directly; synthesise your own insight):
%s
Requirements:
- Write for a CIO audience: strategic, direct, no fluff
- 3-4 sections with ## headings
- End with a practical "Your Next Step" section
- Original analysis, not a news summary
- Title should be compelling and specific to this week's theme
- Return ONLY the Markdown content starting with the title as a # heading, no preamble

Write the article now:`, theme, weekLabel, sources.String())
}

func filterByTheme(items []domain.ClassifiedItem, theme string) []domain.ClassifiedItem {
	var matched []domain.ClassifiedItem
	for _, item := range items {
		if item.Theme == theme {
			matched = append(matched, item)
		}
	}
	return matched
}

// mergeSubThemes is the deduplicated union of the contributing items'
// sub-themes in first-seen order, capped at limit.
func mergeSubThemes(items []domain.ClassifiedItem, limit int) []string {
	seen := map[string]bool{}
	merged := []string{}
	for _, item := range items {
		for _, sub := range item.SubThemes {
			if sub == "" || seen[sub] {
				continue
			}
			seen[sub] = true
			merged = append(merged, sub)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

func (s *Synthesizer) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *Synthesizer) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
