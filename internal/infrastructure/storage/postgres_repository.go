package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/lightouch/insights/internal/domain"
	"github.com/lightouch/insights/internal/ports"
)

// PostgresRepository remembers the canonical URLs of items earlier runs
// already turned into drafts, so repeated feed entries are not
// re-synthesized week after week.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ProcessedRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Seen returns a map keyed by the URLs that already exist in storage.
func (r *PostgresRepository) Seen(ctx context.Context, urls []string) (map[string]bool, error) {
	if r.db == nil || len(urls) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := r.builder.
		Select("canonical_url").
		From("processed_items").
		Where(sq.Expr("canonical_url = ANY(?)", pq.StringArray(urls))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// MarkProcessed upserts one row per classified item.
func (r *PostgresRepository) MarkProcessed(ctx context.Context, items []domain.ClassifiedItem) error {
	if r.db == nil || len(items) == 0 {
		return nil
	}

	insert := r.builder.
		Insert("processed_items").
		Columns("canonical_url", "title", "source", "theme")
	for _, item := range items {
		insert = insert.Values(item.URL, item.Title, item.Source, item.Theme)
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (canonical_url) DO UPDATE SET theme = EXCLUDED.theme, processed_at = NOW()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}
