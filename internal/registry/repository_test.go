package registry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewRepository(sqlx.NewDb(db, "postgres"), nil)
	return repo, mock
}

func sourceRow(id, name string, next *time.Time) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "type", "url", "adapter_config", "content_types", "active",
		"fetch_interval", "min_interval", "max_interval", "last_fetch_at", "next_fetch_at",
		"etag", "last_modified", "quota_max_items", "quota_max_size", "created_at", "updated_at",
	})
	rows.AddRow(id, name, "feed", "https://example.com/feed", []byte(`{}`), []byte(`[]`), true,
		int64(time.Hour), int64(30*time.Minute), int64(24*time.Hour), nil, next,
		"", "", 0, 0, time.Now(), time.Now())
	return rows
}

func TestRepository_CreateValidatesSource(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	err := repo.Create(context.Background(), &domain.Source{Name: "broken"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateInserts(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)
	mock.ExpectExec("INSERT INTO sources").
		WillReturnResult(sqlmock.NewResult(0, 1))

	source := &domain.Source{
		Name:        "city-feed",
		Type:        domain.SourceTypeFeed,
		URL:         "https://example.com/feed",
		Active:      true,
		MinInterval: 30 * time.Minute,
		MaxInterval: 24 * time.Hour,
	}

	err := repo.Create(context.Background(), source)
	require.NoError(t, err)

	// ID and initial interval are filled in.
	assert.NotEmpty(t, source.ID)
	assert.Equal(t, 30*time.Minute, source.FetchInterval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)
	mock.ExpectQuery("SELECT (.+) FROM sources WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListDue(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	mock.ExpectQuery(`SELECT (.+) FROM sources\s+WHERE active AND \(next_fetch_at IS NULL OR next_fetch_at <= \$1\)`).
		WithArgs(now, 10).
		WillReturnRows(sourceRow("s1", "city-feed", &past))

	sources, err := repo.ListDue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "city-feed", sources[0].Name)
	assert.Equal(t, time.Hour, sources[0].FetchInterval)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteNotFound(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)
	mock.ExpectExec("DELETE FROM sources").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordOutcomeReschedules(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	lockRows := sqlmock.NewRows([]string{
		"id", "name", "fetch_interval", "min_interval", "max_interval",
	}).AddRow("s1", "city-feed", int64(time.Hour), int64(30*time.Minute), int64(24*time.Hour))

	wantInterval := 48 * time.Minute // 1h x 0.8 after a productive crawl

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, fetch_interval").
		WithArgs("s1").
		WillReturnRows(lockRows)
	mock.ExpectExec("UPDATE sources").
		WithArgs("s1", wantInterval, now, now.Add(wantInterval), `"v7"`, "Fri, 01 Mar 2024 10:30:00 GMT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RecordOutcome(context.Background(), "s1", Outcome{
		Success:      true,
		ItemsFound:   12,
		NewItems:     8,
		ETag:         `"v7"`,
		LastModified: "Fri, 01 Mar 2024 10:30:00 GMT",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordOutcomeUnknownSource(t *testing.T) {
	t.Parallel()

	repo, mock := newTestRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name, fetch_interval").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.RecordOutcome(context.Background(), "missing", Outcome{Success: false})
	assert.ErrorIs(t, err, ErrSourceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
