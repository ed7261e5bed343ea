package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// Library reads the published article area back out of the content store.
type Library struct {
	store  ports.ContentStore
	logger *slog.Logger
}

// NewLibrary wires the content store.
func NewLibrary(store ports.ContentStore, logger *slog.Logger) *Library {
	return &Library{store: store, logger: logger}
}

// ListPublished returns every published article, newest first. Unreadable
// or unparseable files are skipped so one bad document cannot hide the
// rest of the library.
func (l *Library) ListPublished(ctx context.Context) ([]domain.Post, error) {
	entries, err := l.store.List(ctx, postsDir)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := []domain.Post{}
	for _, entry := range entries {
		if entry.IsDir || !strings.HasSuffix(entry.Name, ".md") {
			continue
		}
		post, err := l.readPost(ctx, strings.TrimSuffix(entry.Name, ".md"))
		if err != nil {
			l.warn("skip post", "file", entry.Name, "error", err)
			continue
		}
		if post.Status != domain.StatusPublished {
			continue
		}
		posts = append(posts, post)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date > posts[j].Date
	})
	return posts, nil
}

// GetPublished returns one published article by slug, or ErrNotFound for
// absent and unpublished documents alike.
func (l *Library) GetPublished(ctx context.Context, slug string) (*domain.Post, error) {
	if !keyExpr.MatchString(slug) {
		return nil, fmt.Errorf("slug %q: %w", slug, domain.ErrInvalidRequest)
	}

	post, err := l.readPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post.Status != domain.StatusPublished {
		return nil, fmt.Errorf("post %s: %w", slug, domain.ErrNotFound)
	}
	return &post, nil
}

func (l *Library) readPost(ctx context.Context, slug string) (domain.Post, error) {
	doc, err := l.store.Read(ctx, postsDir+"/"+slug+".md")
	if err != nil {
		return domain.Post{}, err
	}

	meta, body, err := domain.ParseFrontMatter(doc.Body)
	if err != nil {
		return domain.Post{}, err
	}

	if meta.Slug == "" {
		meta.Slug = slug
	}
	return domain.Post{
		Slug:      meta.Slug,
		Title:     meta.Title,
		Theme:     meta.Theme,
		SubThemes: meta.SubThemes,
		WeekLabel: meta.WeekLabel,
		Date:      meta.Date,
		Status:    meta.Status,
		Excerpt:   excerpt(body),
		Body:      body,
		Sources:   meta.Sources,
	}, nil
}

// excerpt is the first body line that is neither blank nor a heading.
func excerpt(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

func (l *Library) warn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}
