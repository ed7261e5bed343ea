package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

const defaultBatchSize = 10

// ClassifierConfig tunes batching and the theme set.
type ClassifierConfig struct {
	Themes       []domain.Theme
	DefaultTheme string
	BatchSize    int
	MaxTokens    int
}

// Classifier tags harvested items with themes in fixed-size batches, one
// completion call per batch. A failed batch degrades to the default theme
// instead of dropping content.
type Classifier struct {
	client       ports.CompletionClient
	themes       []domain.Theme
	themeNames   map[string]bool
	defaultTheme string
	batchSize    int
	maxTokens    int
	logger       *slog.Logger
}

// NewClassifier constructs the batch classifier.
func NewClassifier(client ports.CompletionClient, cfg ClassifierConfig, logger *slog.Logger) *Classifier {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	names := make(map[string]bool, len(cfg.Themes))
	for _, theme := range cfg.Themes {
		names[theme.Name] = true
	}
	return &Classifier{
		client:       client,
		themes:       cfg.Themes,
		themeNames:   names,
		defaultTheme: cfg.DefaultTheme,
		batchSize:    batchSize,
		maxTokens:    cfg.MaxTokens,
		logger:       logger,
	}
}

// Classify processes items batch by batch, preserving cross-batch order.
func (c *Classifier) Classify(ctx context.Context, items []domain.HarvestedItem) []domain.ClassifiedItem {
	results := make([]domain.ClassifiedItem, 0, len(items))
	for start := 0; start < len(items); start += c.batchSize {
		end := start + c.batchSize
		if end > len(items) {
			end = len(items)
		}
		results = append(results, c.classifyBatch(ctx, items[start:end])...)
	}
	return results
}

type tagEntry struct {
	Index     int      `json:"index"`
	Theme     string   `json:"theme"`
	SubThemes []string `json:"subThemes"`
}

func (c *Classifier) classifyBatch(ctx context.Context, batch []domain.HarvestedItem) []domain.ClassifiedItem {
	// No completion client configured behaves like a failed call: every
	// item degrades to the default theme instead of being dropped.
	if c.client == nil {
		c.warn("no completion client, tagging batch with default theme", "size", len(batch))
		return c.fallback(batch)
	}

	reply, err := c.client.Complete(ctx, c.buildPrompt(batch), c.maxTokens)
	if err != nil {
		c.warn("classification batch failed", "size", len(batch), "error", err)
		return c.fallback(batch)
	}

	entries, err := extractTagArray(reply)
	if err != nil {
		c.warn("classification reply unparseable", "size", len(batch), "error", err)
		return c.fallback(batch)
	}

	results := make([]domain.ClassifiedItem, 0, len(batch))
	for _, entry := range entries {
		// Indices are 1-based in the prompt; anything out of range is a
		// hallucinated entry and is ignored rather than crashing the batch.
		if entry.Index < 1 || entry.Index > len(batch) {
			c.warn("classification index out of range", "index", entry.Index)
			continue
		}

		theme := entry.Theme
		if !c.themeNames[theme] {
			theme = c.defaultTheme
		}
		subThemes := entry.SubThemes
		if subThemes == nil {
			subThemes = []string{}
		}

		results = append(results, domain.ClassifiedItem{
			HarvestedItem: batch[entry.Index-1],
			Theme:         theme,
			SubThemes:     subThemes,
		})
	}
	return results
}

// fallback tags every batch item with the default theme; classification
// failure is non-fatal and must not drop content.
func (c *Classifier) fallback(batch []domain.HarvestedItem) []domain.ClassifiedItem {
	results := make([]domain.ClassifiedItem, 0, len(batch))
	for _, item := range batch {
		results = append(results, domain.ClassifiedItem{
			HarvestedItem: item,
			Theme:         c.defaultTheme,
			SubThemes:     []string{},
		})
	}
	return results
}

func (c *Classifier) buildPrompt(batch []domain.HarvestedItem) string {
	var themeList strings.Builder
	for _, theme := range c.themes {
		fmt.Fprintf(&themeList, "- %s: %s\n", theme.Name, strings.Join(theme.SubThemes, ", "))
	}

	var itemList strings.Builder
	for i, item := range batch {
		fmt.Fprintf(&itemList, "%d. %q - %s\n", i+1, item.Title, item.Snippet)
	}

	return fmt.Sprintf(`You are a content classifier for a technology consulting firm.

Classify each article into exactly one of these themes:
%s
Articles:
%s
Respond with a JSON array only, one entry per article, in this exact format:
[{"index": 1, "theme": "Strategy", "subThemes": ["Innovation"]}]

Only include the JSON array in your response, no other text.`, themeList.String(), itemList.String())
}

// extractTagArray pulls the first JSON array out of the reply. The model
// is asked for bare JSON but routinely wraps it in prose, so everything
// outside the outermost brackets is discarded.
func extractTagArray(reply string) ([]tagEntry, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in reply: %w", domain.ErrModelParse)
	}

	var entries []tagEntry
	if err := json.Unmarshal([]byte(reply[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrModelParse)
	}
	return entries, nil
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
