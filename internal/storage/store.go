// Package storage persists deduplicated content behind a
// fingerprint-keyed write-through index. The content table and the
// index table never diverge: both sides of every write share one
// transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
)

// ErrContentNotFound is returned when an operation targets a content
// id that does not exist.
var ErrContentNotFound = errors.New("content not found")

const contentColumns = `id, type, title, content, summary, source_url, source_id,
	fingerprint, quality_score, status, publish_date, extra, created_at, updated_at`

// ContentStore is the relational content storage layer.
type ContentStore struct {
	db  *sqlx.DB
	log logger.Interface
	now func() time.Time
}

// NewContentStore creates a content store.
func NewContentStore(db *sqlx.DB, log logger.Interface) *ContentStore {
	if log == nil {
		log = logger.NewNoop()
	}
	return &ContentStore{db: db, log: log, now: time.Now}
}

// Store persists a content record and its index entry in one
// transaction. When the fingerprint already exists the incoming record
// merges into the existing row instead of creating a duplicate; the
// existing id is returned either way.
func (s *ContentStore) Store(ctx context.Context, content *domain.StoredContent) (string, error) {
	if content.ID == "" {
		content.ID = uuid.New().String()
	}
	if content.Fingerprint == "" {
		content.Fingerprint = Fingerprint(content.Title, content.Content)
	}
	if content.Status == "" {
		content.Status = domain.ContentStatusPending
	}
	now := s.now()
	content.CreatedAt = now
	content.UpdatedAt = now

	inserted, err := s.insertNew(ctx, content)
	if err != nil {
		return "", err
	}
	if inserted {
		return content.ID, nil
	}

	// Duplicate fingerprint: refresh the existing record instead.
	return s.mergeExisting(ctx, content)
}

// insertNew inserts the content row and its index entry. Returns false
// without error when the fingerprint is already indexed; the content
// insert is rolled back so the tables stay in lockstep.
func (s *ContentStore) insertNew(ctx context.Context, content *domain.StoredContent) (inserted bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil || !inserted {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO content (`+contentColumns+`)
		VALUES (:id, :type, :title, :content, :summary, :source_url, :source_id,
			:fingerprint, :quality_score, :status, :publish_date, :extra,
			:created_at, :updated_at)
	`, content)
	if err != nil {
		return false, fmt.Errorf("insert content: %w", err)
	}

	// The unique constraint arbitrates near-simultaneous inserts of
	// the same fingerprint.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO content_index (fingerprint, content_id, quality_score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO NOTHING
	`, content.Fingerprint, content.ID, content.QualityScore, content.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert index entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("index rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit content: %w", err)
	}
	return true, nil
}

// mergeExisting folds an incoming duplicate into the content row the
// fingerprint already points at.
func (s *ContentStore) mergeExisting(ctx context.Context, content *domain.StoredContent) (id string, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	err = tx.GetContext(ctx, &id,
		`SELECT content_id FROM content_index WHERE fingerprint = $1 FOR UPDATE`,
		content.Fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("index entry vanished for fingerprint %s", content.Fingerprint)
		return "", err
	}
	if err != nil {
		err = fmt.Errorf("lock index entry: %w", err)
		return "", err
	}

	now := s.now()
	_, err = tx.ExecContext(ctx, `
		UPDATE content
		SET content = $2, summary = $3, quality_score = $4, updated_at = $5
		WHERE id = $1
	`, id, content.Content, content.Summary, content.QualityScore, now)
	if err != nil {
		err = fmt.Errorf("merge content: %w", err)
		return "", err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE content_index SET quality_score = $2, updated_at = $3 WHERE fingerprint = $1
	`, content.Fingerprint, content.QualityScore, now)
	if err != nil {
		err = fmt.Errorf("refresh index entry: %w", err)
		return "", err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit merge: %w", err)
		return "", err
	}

	s.log.Debug("duplicate content merged",
		"id", id,
		"fingerprint", content.Fingerprint,
	)

	return id, nil
}

// Update applies a patch to a content row and keeps the index entry in
// step, inside one transaction.
func (s *ContentStore) Update(ctx context.Context, id string, patch domain.ContentPatch) (err error) {
	sets, args := buildPatch(patch)
	if len(sets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	now := s.now()
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)+2))
	args = append([]any{id}, append(args, now)...)

	query := `UPDATE content SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if affected == 0 {
		err = ErrContentNotFound
		return err
	}

	indexUpdate := `UPDATE content_index SET updated_at = $2 WHERE content_id = $1`
	indexArgs := []any{id, now}
	if patch.QualityScore != nil {
		indexUpdate = `UPDATE content_index SET quality_score = $2, updated_at = $3 WHERE content_id = $1`
		indexArgs = []any{id, *patch.QualityScore, now}
	}
	if _, err = tx.ExecContext(ctx, indexUpdate, indexArgs...); err != nil {
		return fmt.Errorf("update index entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func buildPatch(patch domain.ContentPatch) (sets []string, args []any) {
	// $1 is reserved for the id.
	pos := 2
	add := func(column string, value any) {
		sets = append(sets, column+" = $"+strconv.Itoa(pos))
		args = append(args, value)
		pos++
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Summary != nil {
		add("summary", *patch.Summary)
	}
	if patch.QualityScore != nil {
		add("quality_score", *patch.QualityScore)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Extra != nil {
		add("extra", patch.Extra)
	}
	return sets, args
}

// Get returns one content record by id.
func (s *ContentStore) Get(ctx context.Context, id string) (*domain.StoredContent, error) {
	var content domain.StoredContent
	query := `SELECT ` + contentColumns + ` FROM content WHERE id = $1`

	err := s.db.GetContext(ctx, &content, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	return &content, nil
}

// GetByFingerprint returns the content record a fingerprint resolves
// to, or ErrContentNotFound.
func (s *ContentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*domain.StoredContent, error) {
	var content domain.StoredContent
	query := `
		SELECT ` + contentColumns + ` FROM content
		WHERE id = (SELECT content_id FROM content_index WHERE fingerprint = $1)
	`

	err := s.db.GetContext(ctx, &content, query, fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query content by fingerprint: %w", err)
	}
	return &content, nil
}

// Query returns content matching the filter with ordering and paging.
func (s *ContentStore) Query(ctx context.Context, filter Filter) ([]domain.StoredContent, error) {
	whereClause, args := buildWhere(filter)
	limit, offset := clampPaging(filter)
	limitPos := strconv.Itoa(len(args) + 1)
	offsetPos := strconv.Itoa(len(args) + 2)

	query := `SELECT ` + contentColumns + ` FROM content WHERE 1=1` +
		whereClause + buildOrder(filter) +
		` LIMIT $` + limitPos + ` OFFSET $` + offsetPos
	args = append(args, limit, offset)

	results := make([]domain.StoredContent, 0)
	if err := s.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	return results, nil
}

// Count returns the number of records matching the filter, ignoring
// paging.
func (s *ContentStore) Count(ctx context.Context, filter Filter) (int, error) {
	whereClause, args := buildWhere(filter)
	query := `SELECT COUNT(*) FROM content WHERE 1=1` + whereClause

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count content: %w", err)
	}
	return count, nil
}

// Delete removes a content record and its index entry, index first.
// Returns false when the id does not exist.
func (s *ContentStore) Delete(ctx context.Context, id string) (deleted bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM content_index WHERE content_id = $1`, id); err != nil {
		return false, fmt.Errorf("delete index entry: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM content WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete content: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return affected > 0, nil
}
