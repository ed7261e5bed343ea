package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// PipelineDeps wires all driven adapters into the weekly generation run.
type PipelineDeps struct {
	Source        ports.ItemSource
	Classifier    *Classifier
	Synthesizer   *Synthesizer
	Publisher     *Publisher
	Repository    ports.ProcessedRepository
	Notifier      ports.Notifier
	RecencyWindow time.Duration
	Logger        *slog.Logger
}

// Pipeline implements the harvest, classify, synthesize, publish workflow.
// Each run reads fresh state; nothing is shared between runs.
type Pipeline struct {
	source        ports.ItemSource
	classifier    *Classifier
	synthesizer   *Synthesizer
	publisher     *Publisher
	repository    ports.ProcessedRepository
	notifier      ports.Notifier
	recencyWindow time.Duration
	logger        *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	recency := deps.RecencyWindow
	if recency <= 0 {
		recency = 7 * 24 * time.Hour
	}
	return &Pipeline{
		source:        deps.Source,
		classifier:    deps.Classifier,
		synthesizer:   deps.Synthesizer,
		publisher:     deps.Publisher,
		repository:    deps.Repository,
		notifier:      deps.Notifier,
		recencyWindow: recency,
		logger:        deps.Logger,
	}
}

// Run executes one full generation pass for the week containing now.
// Harvest failure aborts the run; everything downstream degrades per
// unit of work instead of failing the whole run.
func (p *Pipeline) Run(ctx context.Context, now time.Time) error {
	if p.source == nil {
		return nil
	}

	week := domain.WeekLabel(now)
	cutoff := now.Add(-p.recencyWindow)
	p.info("run started", "week", week)

	items, err := p.source.FetchRecent(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}
	p.info("harvest complete", "items", len(items))

	items = p.dropAlreadyProcessed(ctx, items)
	if len(items) == 0 {
		p.info("nothing new to process", "week", week)
		return nil
	}

	classified := p.classifier.Classify(ctx, items)
	drafts := p.synthesizer.Synthesize(ctx, classified, week)
	p.info("synthesis complete", "drafts", len(drafts))

	var published []string
	for _, draft := range drafts {
		path, err := p.publisher.PublishDraft(ctx, draft)
		if err != nil {
			p.error("draft commit failed", "theme", draft.Theme, "error", err)
			continue
		}
		published = append(published, path)
	}

	if p.repository != nil {
		if err := p.repository.MarkProcessed(ctx, classified); err != nil {
			p.warn("record processed items", "error", err)
		}
	}

	p.notify(ctx, week, len(items), published)
	p.info("run finished", "week", week, "published", len(published))
	return nil
}

// dropAlreadyProcessed filters out items earlier runs have handled. A
// repository failure degrades to no filtering rather than aborting.
func (p *Pipeline) dropAlreadyProcessed(ctx context.Context, items []domain.HarvestedItem) []domain.HarvestedItem {
	if p.repository == nil || len(items) == 0 {
		return items
	}

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}

	seen, err := p.repository.Seen(ctx, urls)
	if err != nil {
		p.warn("dedup lookup failed, processing all items", "error", err)
		return items
	}

	fresh := items[:0]
	for _, item := range items {
		if !seen[item.URL] {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

func (p *Pipeline) notify(ctx context.Context, week string, itemCount int, published []string) {
	if p.notifier == nil {
		return
	}

	var digest strings.Builder
	fmt.Fprintf(&digest, "Weekly insights run %s\n%d items harvested, %d drafts committed\n", week, itemCount, len(published))
	for _, path := range published {
		fmt.Fprintf(&digest, "- %s\n", path)
	}

	if err := p.notifier.PublishDigest(ctx, digest.String()); err != nil {
		p.warn("run digest not delivered", "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) error(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Error(msg, args...)
	}
}
