package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// memStore is an in-memory ContentStore with the same optimistic
// concurrency and move semantics as the remote client.
type memStore struct {
	mu         sync.Mutex
	files      map[string]domain.Document
	next       int
	failDelete bool
}

func newMemStore() *memStore {
	return &memStore{files: map[string]domain.Document{}}
}

var _ ports.ContentStore = (*memStore)(nil)

func (m *memStore) Read(_ context.Context, path string) (domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.files[path]
	if !ok {
		return domain.Document{}, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return doc, nil
}

func (m *memStore) Create(_ context.Context, path, body string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[path]; exists {
		return "", fmt.Errorf("%s: %w", path, domain.ErrConflict)
	}
	m.next++
	doc := domain.Document{Body: body, Version: fmt.Sprintf("v%d", m.next)}
	m.files[path] = doc
	return doc.Version, nil
}

func (m *memStore) Update(_ context.Context, path, body, expectedVersion string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return "", fmt.Errorf("%s: %w", path, domain.ErrConflict)
	}
	m.next++
	doc := domain.Document{Body: body, Version: fmt.Sprintf("v%d", m.next)}
	m.files[path] = doc
	return doc.Version, nil
}

func (m *memStore) Delete(_ context.Context, path, expectedVersion string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete {
		return fmt.Errorf("%s: %w", path, domain.ErrTransient)
	}
	current, ok := m.files[path]
	if !ok {
		return fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("%s: %w", path, domain.ErrConflict)
	}
	delete(m.files, path)
	return nil
}

func (m *memStore) Move(ctx context.Context, fromPath, toPath, newBody, expectedVersion string) error {
	if _, err := m.Create(ctx, toPath, newBody); err != nil {
		return err
	}
	// Same contract as the remote client: a failed delete after a
	// successful create leaves a dangling source but reports success.
	_ = m.Delete(ctx, fromPath, expectedVersion)
	return nil
}

func (m *memStore) List(_ context.Context, dir string) ([]ports.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var entries []ports.Entry
	for path := range m.files {
		if !strings.HasPrefix(path, dir+"/") {
			continue
		}
		name, _, isDir := strings.Cut(strings.TrimPrefix(path, dir+"/"), "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, ports.Entry{Name: name, IsDir: isDir})
	}
	return entries, nil
}

// completionFunc adapts a function to ports.CompletionClient.
type completionFunc func(ctx context.Context, prompt string, maxTokens int) (string, error)

func (f completionFunc) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return f(ctx, prompt, maxTokens)
}

// stubSource returns a fixed item list.
type stubSource struct {
	items []domain.HarvestedItem
	err   error
}

func (s *stubSource) FetchRecent(context.Context, time.Time) ([]domain.HarvestedItem, error) {
	return s.items, s.err
}

// stubRepo is an in-memory ProcessedRepository.
type stubRepo struct {
	seen    map[string]bool
	seenErr error
	marked  []domain.ClassifiedItem
}

func (r *stubRepo) Seen(_ context.Context, urls []string) (map[string]bool, error) {
	if r.seenErr != nil {
		return nil, r.seenErr
	}
	out := map[string]bool{}
	for _, u := range urls {
		if r.seen[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (r *stubRepo) MarkProcessed(_ context.Context, items []domain.ClassifiedItem) error {
	r.marked = append(r.marked, items...)
	return nil
}

// stubNotifier records the digests it was asked to deliver.
type stubNotifier struct {
	digests []string
}

func (n *stubNotifier) PublishDigest(_ context.Context, digest string) error {
	n.digests = append(n.digests, digest)
	return nil
}

func adminIdentity() *domain.ResolvedIdentity {
	return &domain.ResolvedIdentity{Role: domain.RoleAdmin, Projects: []string{}}
}

func consultantIdentity(projects ...string) *domain.ResolvedIdentity {
	return &domain.ResolvedIdentity{Role: domain.RoleConsultant, Projects: projects}
}

func themeSet() []domain.Theme {
	return []domain.Theme{
		{Name: "Strategy", SubThemes: []string{"Innovation"}},
		{Name: "Security", SubThemes: []string{"Risk"}},
	}
}

func harvested(title, url string) domain.HarvestedItem {
	return domain.HarvestedItem{Title: title, URL: url, Source: "test-feed", Snippet: "snippet for " + title}
}
