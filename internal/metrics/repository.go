package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/goharvest/internal/domain"
)

// Repository persists run and source metrics. Rows are append-only;
// nothing here updates or deletes.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a metrics repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// RecordRun appends one run row.
func (r *Repository) RecordRun(ctx context.Context, run *domain.RunMetrics) error {
	query := `
		INSERT INTO run_metrics (sources_processed, items_found, items_processed, errors, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		run.SourcesProcessed,
		run.ItemsFound,
		run.ItemsProcessed,
		run.Errors,
		run.DurationSeconds,
	).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run metrics: %w", err)
	}
	return nil
}

// RecordSources appends the per-source rows for one run.
func (r *Repository) RecordSources(ctx context.Context, rows []domain.SourceMetrics) error {
	if len(rows) == 0 {
		return nil
	}

	query := `
		INSERT INTO source_metrics (source_id, items_found, items_processed, errors, duration_seconds)
		VALUES (:source_id, :items_found, :items_processed, :errors, :duration_seconds)
	`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert source metrics: %w", err)
	}
	return nil
}

// LastRun returns the most recent run row, or nil when none exist.
func (r *Repository) LastRun(ctx context.Context) (*domain.RunMetrics, error) {
	runs := make([]domain.RunMetrics, 0, 1)
	query := `
		SELECT id, sources_processed, items_found, items_processed, errors, duration_seconds, created_at
		FROM run_metrics ORDER BY created_at DESC LIMIT 1
	`

	if err := r.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// Window aggregates source metrics recorded since the cutoff. The
// orchestrator's global rescheduler reads a rolling 7-day window.
func (r *Repository) Window(ctx context.Context, since time.Time) (domain.MetricsWindow, error) {
	var window domain.MetricsWindow
	query := `
		SELECT
			COUNT(DISTINCT source_id) AS sources,
			COALESCE(SUM(items_found), 0) AS items_found,
			COALESCE(SUM(items_processed), 0) AS items_processed,
			COALESCE(SUM(CASE WHEN errors > 0 THEN 1 ELSE 0 END), 0) AS errors,
			COUNT(*) AS attempts,
			COALESCE(AVG(items_found), 0) AS avg_item_yield
		FROM source_metrics
		WHERE created_at >= $1
	`

	if err := r.db.GetContext(ctx, &window, query, since); err != nil {
		return domain.MetricsWindow{}, fmt.Errorf("query metrics window: %w", err)
	}
	return window, nil
}
