// Package registry manages source definitions and their adaptive
// crawl schedules.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/goharvest/internal/database"
	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
)

// ErrSourceNotFound is returned when an operation targets a source id
// that does not exist.
var ErrSourceNotFound = errors.New("source not found")

const sourceColumns = `id, name, type, url, adapter_config, content_types, active,
	fetch_interval, min_interval, max_interval, last_fetch_at, next_fetch_at,
	etag, last_modified, quota_max_items, quota_max_size, created_at, updated_at`

// Outcome summarizes one crawl attempt against a source. ETag and
// LastModified carry the response validators observed during the
// attempt so the next poll can be conditional.
type Outcome struct {
	Success      bool
	ItemsFound   int
	NewItems     int
	ETag         string
	LastModified string
}

// Repository persists sources and applies the adaptive interval
// controller on every recorded outcome.
type Repository struct {
	db  *sqlx.DB
	log logger.Interface
	now func() time.Time
}

// NewRepository creates a source repository.
func NewRepository(db *sqlx.DB, log logger.Interface) *Repository {
	if log == nil {
		log = logger.NewNoop()
	}
	return &Repository{db: db, log: log, now: time.Now}
}

// Create validates and inserts a new source. A zero FetchInterval is
// initialized from MinInterval before validation.
func (r *Repository) Create(ctx context.Context, source *domain.Source) error {
	if source.ID == "" {
		source.ID = uuid.New().String()
	}
	if source.FetchInterval == 0 {
		source.FetchInterval = source.MinInterval
	}
	if err := source.Validate(); err != nil {
		return err
	}

	now := r.now()
	source.CreatedAt = now
	source.UpdatedAt = now

	query := `
		INSERT INTO sources (` + sourceColumns + `)
		VALUES (:id, :name, :type, :url, :adapter_config, :content_types, :active,
			:fetch_interval, :min_interval, :max_interval, :last_fetch_at, :next_fetch_at,
			:etag, :last_modified, :quota_max_items, :quota_max_size, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, source); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}

	r.log.Info("source created",
		"id", source.ID,
		"name", source.Name,
		"type", string(source.Type),
	)

	return nil
}

// Get returns one source by id.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Source, error) {
	var source domain.Source
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`

	err := r.db.GetContext(ctx, &source, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}

	return &source, nil
}

// GetByName returns one source by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (*domain.Source, error) {
	var source domain.Source
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE name = $1`

	err := r.db.GetContext(ctx, &source, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query source: %w", err)
	}

	return &source, nil
}

// List returns all sources ordered by name.
func (r *Repository) List(ctx context.Context) ([]domain.Source, error) {
	sources := make([]domain.Source, 0)
	query := `SELECT ` + sourceColumns + ` FROM sources ORDER BY name`

	if err := r.db.SelectContext(ctx, &sources, query); err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}

	return sources, nil
}

// ListDue returns active sources whose next fetch is unset or in the
// past, soonest first, bounded by limit.
func (r *Repository) ListDue(ctx context.Context, limit int) ([]domain.Source, error) {
	sources := make([]domain.Source, 0)
	query := `
		SELECT ` + sourceColumns + `
		FROM sources
		WHERE active AND (next_fetch_at IS NULL OR next_fetch_at <= $1)
		ORDER BY next_fetch_at ASC NULLS FIRST
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &sources, query, r.now(), limit); err != nil {
		return nil, fmt.Errorf("query due sources: %w", err)
	}

	return sources, nil
}

// Update replaces a source definition.
func (r *Repository) Update(ctx context.Context, source *domain.Source) error {
	if err := source.Validate(); err != nil {
		return err
	}
	source.UpdatedAt = r.now()

	query := `
		UPDATE sources
		SET name = :name, type = :type, url = :url, adapter_config = :adapter_config,
			content_types = :content_types, active = :active,
			fetch_interval = :fetch_interval, min_interval = :min_interval,
			max_interval = :max_interval, etag = :etag, last_modified = :last_modified,
			quota_max_items = :quota_max_items, quota_max_size = :quota_max_size,
			updated_at = :updated_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, source)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	return database.ExecRequireRows(result, nil, ErrSourceNotFound)
}

// SetActive enables or disables a source without touching its
// schedule.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE sources SET active = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, active, r.now())
	return database.ExecRequireRows(result, err, ErrSourceNotFound)
}

// Delete removes a source.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sources WHERE id = $1`, id)
	return database.ExecRequireRows(result, err, ErrSourceNotFound)
}

// RecordOutcome applies the adaptive interval controller for one crawl
// outcome and reschedules the source. The row is locked for the
// read-adjust-write so concurrent outcomes serialize per source.
func (r *Repository) RecordOutcome(ctx context.Context, sourceID string, outcome Outcome) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	var source domain.Source
	err = tx.GetContext(ctx, &source,
		`SELECT id, name, fetch_interval, min_interval, max_interval
		 FROM sources WHERE id = $1 FOR UPDATE`, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrSourceNotFound
		return err
	}
	if err != nil {
		err = fmt.Errorf("lock source: %w", err)
		return err
	}

	interval := NextInterval(&source, outcome.Success, outcome.NewItems)
	now := r.now()
	next := now.Add(interval)

	_, err = tx.ExecContext(ctx,
		`UPDATE sources
		 SET fetch_interval = $2, last_fetch_at = $3, next_fetch_at = $4,
		     etag = $5, last_modified = $6, updated_at = $3
		 WHERE id = $1`,
		sourceID, interval, now, next, outcome.ETag, outcome.LastModified)
	if err != nil {
		err = fmt.Errorf("reschedule source: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit outcome: %w", err)
		return err
	}

	r.log.Debug("source rescheduled",
		"source", source.Name,
		"success", outcome.Success,
		"new_items", outcome.NewItems,
		"interval", interval.String(),
	)

	return nil
}
