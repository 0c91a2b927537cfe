package metrics_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/metrics"
)

func TestCollector_RetryReplacesSourceCounters(t *testing.T) {
	t.Parallel()

	c := metrics.NewCollector()

	// First pass fails, retry succeeds.
	c.RecordSource("s1", 0, 0, 1, time.Second)
	c.RecordSource("s2", 4, 4, 0, time.Second)
	c.RecordSource("s1", 6, 6, 0, 2*time.Second)

	totals := c.RunTotals()
	assert.Equal(t, 2, totals.SourcesProcessed)
	assert.Equal(t, 10, totals.ItemsFound)
	assert.Equal(t, 10, totals.ItemsProcessed)
	assert.Equal(t, 0, totals.Errors)

	rows := c.SourceRows()
	assert.Len(t, rows, 2)
}

func TestCollector_ConcurrentRecording(t *testing.T) {
	t.Parallel()

	c := metrics.NewCollector()

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			c.RecordSource(id, 2, 2, 0, time.Second)
		}(id)
	}
	wg.Wait()

	totals := c.RunTotals()
	assert.Equal(t, len(ids), totals.SourcesProcessed)
	assert.Equal(t, 2*len(ids), totals.ItemsFound)
}

func TestRepository_RecordRun(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := metrics.NewRepository(sqlx.NewDb(db, "postgres"))

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO run_metrics").
		WithArgs(3, 12, 11, 1, 4.5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), created))

	run := &domain.RunMetrics{
		SourcesProcessed: 3,
		ItemsFound:       12,
		ItemsProcessed:   11,
		Errors:           1,
		DurationSeconds:  4.5,
	}
	require.NoError(t, repo.RecordRun(context.Background(), run))

	assert.Equal(t, int64(9), run.ID)
	assert.Equal(t, created, run.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordSourcesEmptyIsNoop(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := metrics.NewRepository(sqlx.NewDb(db, "postgres"))

	require.NoError(t, repo.RecordSources(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Window(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := metrics.NewRepository(sqlx.NewDb(db, "postgres"))

	since := time.Now().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery("SELECT(.|\n)+FROM source_metrics").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{
			"sources", "items_found", "items_processed", "errors", "attempts", "avg_item_yield",
		}).AddRow(4, 120, 110, 2, 16, 7.5))

	window, err := repo.Window(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, 4, window.Sources)
	assert.Equal(t, 16, window.Attempts)
	assert.InDelta(t, 0.125, window.ErrorRate(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
