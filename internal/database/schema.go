package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is the bootstrap DDL for all harvester tables. Statements are
// idempotent so startup can always run them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sources (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		adapter_config JSONB NOT NULL DEFAULT '{}',
		content_types JSONB NOT NULL DEFAULT '[]',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		fetch_interval BIGINT NOT NULL,
		min_interval BIGINT NOT NULL,
		max_interval BIGINT NOT NULL,
		last_fetch_at TIMESTAMPTZ,
		next_fetch_at TIMESTAMPTZ,
		etag TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		quota_max_items INTEGER NOT NULL DEFAULT 0,
		quota_max_size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_due
		ON sources (next_fetch_at) WHERE active`,

	`CREATE TABLE IF NOT EXISTS content (
		id UUID PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		source_id UUID,
		fingerprint TEXT NOT NULL,
		quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		publish_date TIMESTAMPTZ,
		extra JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS content_index (
		fingerprint TEXT PRIMARY KEY,
		content_id UUID NOT NULL REFERENCES content(id) ON DELETE CASCADE,
		quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_index_content
		ON content_index (content_id)`,

	`CREATE TABLE IF NOT EXISTS run_metrics (
		id BIGSERIAL PRIMARY KEY,
		sources_processed INTEGER NOT NULL DEFAULT 0,
		items_found INTEGER NOT NULL DEFAULT 0,
		items_processed INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS source_metrics (
		id BIGSERIAL PRIMARY KEY,
		source_id UUID NOT NULL,
		items_found INTEGER NOT NULL DEFAULT 0,
		items_processed INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_source_metrics_window
		ON source_metrics (created_at, source_id)`,
}

// Migrate applies the bootstrap schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
