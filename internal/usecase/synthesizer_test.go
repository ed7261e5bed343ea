package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lightouch/insights/internal/domain"
)

func classified(theme, title, url string, subThemes ...string) domain.ClassifiedItem {
	return domain.ClassifiedItem{
		HarvestedItem: harvested(title, url),
		Theme:         theme,
		SubThemes:     subThemes,
	}
}

func newTestSynthesizer(client completionFunc) *Synthesizer {
	return NewSynthesizer(client, SynthesizerConfig{
		Themes:        themeSet(),
		CitationLimit: 5,
		SubThemeLimit: 3,
	}, nil)
}

func TestSynthesizeSkipsEmptyThemes(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(context.Context, string, int) (string, error) {
		return "# Security This Week\n\nBody.", nil
	})

	synth := newTestSynthesizer(client)
	items := []domain.ClassifiedItem{classified("Security", "breach", "https://n/1")}

	drafts := synth.Synthesize(context.Background(), items, "2026-W35")
	if len(drafts) != 1 {
		t.Fatalf("expected exactly 1 draft, got %d", len(drafts))
	}
	if drafts[0].Theme != "Security" {
		t.Fatalf("unexpected theme: %q", drafts[0].Theme)
	}
}

func TestSynthesizeTitleFromFirstHeading(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(context.Context, string, int) (string, error) {
		return "# The Budget Reckoning\n\n## Section\n\nBody.", nil
	})

	synth := newTestSynthesizer(client)
	drafts := synth.Synthesize(context.Background(), []domain.ClassifiedItem{classified("Strategy", "a", "https://n/1")}, "2026-W35")
	if len(drafts) != 1 || drafts[0].Title != "The Budget Reckoning" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestSynthesizeFallbackTitleWithoutHeading(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(context.Context, string, int) (string, error) {
		return "Just prose with no heading at all.", nil
	})

	synth := newTestSynthesizer(client)
	drafts := synth.Synthesize(context.Background(), []domain.ClassifiedItem{classified("Strategy", "a", "https://n/1")}, "2026-W35")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if !strings.HasPrefix(drafts[0].Title, "Strategy: Weekly Insights") || !strings.Contains(drafts[0].Title, "2026-W35") {
		t.Fatalf("unexpected fallback title: %q", drafts[0].Title)
	}
}

func TestSynthesizeMergesAndCapsSubThemes(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(context.Context, string, int) (string, error) {
		return "# Title\n\nBody.", nil
	})

	synth := newTestSynthesizer(client)
	items := []domain.ClassifiedItem{
		classified("Security", "a", "https://n/1", "Risk", "Compliance"),
		classified("Security", "b", "https://n/2", "Risk", "Zero Trust"),
		classified("Security", "c", "https://n/3", "Cloud", "Identity"),
	}

	drafts := synth.Synthesize(context.Background(), items, "2026-W35")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	subThemes := drafts[0].SubThemes
	if len(subThemes) != 3 {
		t.Fatalf("expected cap of 3 sub-themes, got %v", subThemes)
	}
	want := []string{"Risk", "Compliance", "Zero Trust"}
	for i, w := range want {
		if subThemes[i] != w {
			t.Fatalf("sub-theme %d: expected %q, got %q", i, w, subThemes[i])
		}
	}
}

func TestSynthesizeBoundsCitations(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(context.Context, string, int) (string, error) {
		return "# Title\n\nBody.", nil
	})

	synth := newTestSynthesizer(client)
	var items []domain.ClassifiedItem
	for i := 0; i < 8; i++ {
		items = append(items, classified("Security", "story", "https://n/"+string(rune('a'+i))))
	}

	drafts := synth.Synthesize(context.Background(), items, "2026-W35")
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if len(drafts[0].Sources) != 5 {
		t.Fatalf("expected 5 citations, got %d", len(drafts[0].Sources))
	}
}

func TestSynthesizeWithoutClientProducesNoDrafts(t *testing.T) {
	t.Parallel()

	synth := NewSynthesizer(nil, SynthesizerConfig{Themes: themeSet()}, nil)
	items := []domain.ClassifiedItem{classified("Security", "breach", "https://n/1")}

	drafts := synth.Synthesize(context.Background(), items, "2026-W35")
	if len(drafts) != 0 {
		t.Fatalf("expected no drafts without a completion client, got %+v", drafts)
	}
}

func TestSynthesizeIsolatesFailingTheme(t *testing.T) {
	t.Parallel()

	client := completionFunc(func(_ context.Context, prompt string, _ int) (string, error) {
		if strings.Contains(prompt, `"Strategy"`) {
			return "", errors.New("model unavailable")
		}
		return "# Security Holds\n\nBody.", nil
	})

	synth := newTestSynthesizer(client)
	items := []domain.ClassifiedItem{
		classified("Strategy", "a", "https://n/1"),
		classified("Security", "b", "https://n/2"),
	}

	drafts := synth.Synthesize(context.Background(), items, "2026-W35")
	if len(drafts) != 1 || drafts[0].Theme != "Security" {
		t.Fatalf("expected only the Security draft, got %+v", drafts)
	}
}
