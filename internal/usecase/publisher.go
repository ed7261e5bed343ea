package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// Content area roots inside the remote repository.
const (
	draftsDir   = "content/drafts"
	postsDir    = "content/posts"
	projectsDir = "content/projects"
)

var keyExpr = regexp.MustCompile(`^[\w-]+$`)

// Publisher writes synthesizer output as drafts and runs the approval
// workflow that promotes or discards them. It carries no authorization
// policy; admin checks live in Workspace.
type Publisher struct {
	store  ports.ContentStore
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher wires the content store.
func NewPublisher(store ports.ContentStore, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger, now: time.Now}
}

// PublishDraft commits the draft at a deterministic path keyed by week
// label and theme, with the metadata header prepended. Returns the path.
func (p *Publisher) PublishDraft(ctx context.Context, draft domain.DraftArticle) (string, error) {
	themeSlug := Slugify(draft.Theme)
	if themeSlug == "" || !keyExpr.MatchString(draft.WeekLabel) {
		return "", fmt.Errorf("draft %q/%q: %w", draft.WeekLabel, draft.Theme, domain.ErrInvalidRequest)
	}

	meta := domain.ArticleMeta{
		Title:     draft.Title,
		Slug:      fmt.Sprintf("%s-%s-insights", draft.WeekLabel, themeSlug),
		Theme:     draft.Theme,
		SubThemes: draft.SubThemes,
		WeekLabel: draft.WeekLabel,
		Date:      p.now().UTC().Format("2006-01-02"),
		Status:    domain.StatusDraft,
		Sources:   draft.Sources,
	}

	body, err := domain.EncodeFrontMatter(meta, draft.Body)
	if err != nil {
		return "", fmt.Errorf("encode draft %s: %w", draft.Theme, err)
	}

	path := fmt.Sprintf("%s/%s/%s.md", draftsDir, draft.WeekLabel, themeSlug)
	if _, err := p.store.Create(ctx, path, body); err != nil {
		return "", fmt.Errorf("commit draft: %w", err)
	}
	return path, nil
}

// Approve promotes the draft identified by week and slug into the
// published area, flipping its status flag inside editedBody. The version
// token is re-read from the draft immediately before the move so an
// intervening edit surfaces as a conflict instead of being overwritten.
func (p *Publisher) Approve(ctx context.Context, week, slug, editedBody string) (string, error) {
	if !keyExpr.MatchString(week) || !keyExpr.MatchString(slug) {
		return "", fmt.Errorf("week %q slug %q: %w", week, slug, domain.ErrInvalidRequest)
	}

	meta, _, err := domain.ParseFrontMatter(editedBody)
	if err != nil {
		return "", fmt.Errorf("draft metadata: %w", domain.ErrInvalidRequest)
	}

	publishedSlug := meta.Slug
	if publishedSlug == "" {
		publishedSlug = week + "-" + slug
	}
	if !keyExpr.MatchString(publishedSlug) {
		return "", fmt.Errorf("published slug %q: %w", publishedSlug, domain.ErrInvalidRequest)
	}

	draftPath := draftPath(week, slug)
	current, err := p.store.Read(ctx, draftPath)
	if err != nil {
		return "", fmt.Errorf("read draft: %w", err)
	}

	publishedPath := postsDir + "/" + publishedSlug + ".md"
	publishedBody := domain.SetStatus(editedBody, domain.StatusPublished)
	if err := p.store.Move(ctx, draftPath, publishedPath, publishedBody, current.Version); err != nil {
		return "", fmt.Errorf("publish %s: %w", publishedSlug, err)
	}

	p.info("draft approved", "week", week, "slug", slug, "published", publishedPath)
	return publishedPath, nil
}

// Reject discards the draft identified by week and slug.
func (p *Publisher) Reject(ctx context.Context, week, slug string) error {
	if !keyExpr.MatchString(week) || !keyExpr.MatchString(slug) {
		return fmt.Errorf("week %q slug %q: %w", week, slug, domain.ErrInvalidRequest)
	}

	path := draftPath(week, slug)
	current, err := p.store.Read(ctx, path)
	if err != nil {
		return fmt.Errorf("read draft: %w", err)
	}
	if err := p.store.Delete(ctx, path, current.Version); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}

	p.info("draft rejected", "week", week, "slug", slug)
	return nil
}

func draftPath(week, slug string) string {
	return fmt.Sprintf("%s/%s/%s.md", draftsDir, week, slug)
}

// Slugify lowercases s and reduces it to hyphen-separated alphanumerics.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func (p *Publisher) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
