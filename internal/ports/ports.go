package ports

import (
	"context"
	"time"

	"github.com/lightouch/insights/internal/domain"
)

// Entry is one name in a content store directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// ContentStore is typed CRUD over the remote versioned-file API. Writes
// carry the version token last observed for the path; a stale token fails
// with domain.ErrConflict and is never retried here.
type ContentStore interface {
	Read(ctx context.Context, path string) (domain.Document, error)
	Create(ctx context.Context, path, body string) (string, error)
	Update(ctx context.Context, path, body, expectedVersion string) (string, error)
	Delete(ctx context.Context, path, expectedVersion string) error

	// Move creates at toPath then deletes fromPath. The two steps are not
	// atomic: a delete failure after a successful create is reported as
	// success with a logged warning, leaving a dangling source copy.
	Move(ctx context.Context, fromPath, toPath, newBody, expectedVersion string) error

	List(ctx context.Context, dir string) ([]Entry, error)
}

// ItemSource pulls fresh news items from all configured feed sources.
// Items published before cutoff are excluded; undated items are kept.
type ItemSource interface {
	FetchRecent(ctx context.Context, cutoff time.Time) ([]domain.HarvestedItem, error)
}

// CompletionClient sends one prompt to the language-model completion
// service and returns its free-text response.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// ProcessedRepository remembers canonical URLs handled by earlier runs so
// the pipeline does not synthesize from the same news twice.
type ProcessedRepository interface {
	Seen(ctx context.Context, urls []string) (map[string]bool, error)
	MarkProcessed(ctx context.Context, items []domain.ClassifiedItem) error
}

// Notifier delivers a run summary to an operator channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
