package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/domain"
)

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	t.Parallel()

	a := Fingerprint("Budget  Approved", "Council approved the budget.")
	b := Fingerprint("budget approved", "  Council approved\n the budget.  ")
	c := Fingerprint("Budget Approved", "A different body.")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func newTestStore(t *testing.T) (*ContentStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewContentStore(sqlx.NewDb(db, "postgres"), nil)
	store.now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return store, mock
}

func pendingContent() *domain.StoredContent {
	return &domain.StoredContent{
		Type:     "article",
		Title:    "Budget Approved",
		Content:  "Council approved the budget.",
		SourceID: "3f1c8a34-9d2e-4f6b-8a3e-2f1d5c7b9e01",
	}
}

func TestStore_InsertsContentAndIndexTogether(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO content_index").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	content := pendingContent()
	id, err := store.Store(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, content.ID, id)
	assert.NotEmpty(t, content.Fingerprint)
	assert.Equal(t, domain.ContentStatusPending, content.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DuplicateFingerprintMergesExisting(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)
	existingID := "11111111-2222-3333-4444-555555555555"

	// First transaction: insert rolls back on index conflict.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO content_index").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// Second transaction: merge into the row the index points at.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT content_id FROM content_index").
		WillReturnRows(sqlmock.NewRows([]string{"content_id"}).AddRow(existingID))
	mock.ExpectExec("UPDATE content\\b").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE content_index").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := store.Store(context.Background(), pendingContent())
	require.NoError(t, err)

	// The existing id wins; no duplicate row was kept.
	assert.Equal(t, existingID, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_IndexFailureRollsBackContent(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO content ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO content_index").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := store.Store(context.Background(), pendingContent())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_SyncsIndexQuality(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)
	quality := 0.9
	status := domain.ContentStatusProcessed

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE content SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE content_index SET quality_score").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Update(context.Background(), "c1", domain.ContentPatch{
		QualityScore: &quality,
		Status:       &status,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)
	status := domain.ContentStatusRejected

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE content SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.Update(context.Background(), "missing", domain.ContentPatch{Status: &status})
	assert.ErrorIs(t, err, ErrContentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptyPatchIsNoop(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)

	err := store.Update(context.Background(), "c1", domain.ContentPatch{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RemovesIndexBeforeContent(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM content_index").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM content\\b").
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := store.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingReturnsFalse(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM content_index").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM content\\b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	deleted, err := store.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount_AppliesFilters(t *testing.T) {
	t.Parallel()

	store, mock := newTestStore(t)
	minQuality := 0.5

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM content WHERE 1=1 AND type = \$1 AND status = \$2 AND quality_score >= \$3 AND \(title ILIKE \$4 OR content ILIKE \$4\)`).
		WithArgs("article", "pending", minQuality, "%budget%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.Count(context.Background(), Filter{
		Type:       "article",
		Status:     domain.ContentStatusPending,
		MinQuality: &minQuality,
		Search:     "budget",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampPaging(t *testing.T) {
	t.Parallel()

	limit, offset := clampPaging(Filter{Limit: 5000, Offset: -3})
	assert.Equal(t, MaxQueryLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _ = clampPaging(Filter{})
	assert.Equal(t, DefaultQueryLimit, limit)
}
