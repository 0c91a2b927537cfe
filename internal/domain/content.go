package domain

import "time"

// ContentStatus is the lifecycle state of stored content.
type ContentStatus string

const (
	ContentStatusPending   ContentStatus = "pending"
	ContentStatusProcessed ContentStatus = "processed"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusRejected  ContentStatus = "rejected"
)

// ValidContentStatus reports whether s is a known content status.
func ValidContentStatus(s ContentStatus) bool {
	switch s {
	case ContentStatusPending, ContentStatusProcessed,
		ContentStatusPublished, ContentStatusRejected:
		return true
	default:
		return false
	}
}

// StoredContent is a persisted, deduplicated content record.
// Fingerprint is a deterministic hash of normalized title+content and
// is unique per logical piece of content.
type StoredContent struct {
	ID           string        `db:"id" json:"id"`
	Type         string        `db:"type" json:"type"`
	Title        string        `db:"title" json:"title"`
	Content      string        `db:"content" json:"content"`
	Summary      string        `db:"summary" json:"summary,omitempty"`
	SourceURL    string        `db:"source_url" json:"source_url"`
	SourceID     string        `db:"source_id" json:"source_id"`
	Fingerprint  string        `db:"fingerprint" json:"fingerprint"`
	QualityScore float64       `db:"quality_score" json:"quality_score"`
	Status       ContentStatus `db:"status" json:"status"`
	PublishDate  *time.Time    `db:"publish_date" json:"publish_date,omitempty"`
	Extra        JSONBMap      `db:"extra" json:"extra,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// IndexEntry is the write-through secondary index row kept in lockstep
// with StoredContent inside the same transaction.
type IndexEntry struct {
	ContentID    string    `db:"content_id" json:"content_id"`
	Fingerprint  string    `db:"fingerprint" json:"fingerprint"`
	QualityScore float64   `db:"quality_score" json:"quality_score"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ContentPatch carries the mutable fields for a content update.
// Nil fields are left untouched.
type ContentPatch struct {
	Title        *string        `json:"title,omitempty"`
	Content      *string        `json:"content,omitempty"`
	Summary      *string        `json:"summary,omitempty"`
	QualityScore *float64       `json:"quality_score,omitempty"`
	Status       *ContentStatus `json:"status,omitempty"`
	Extra        JSONBMap       `json:"extra,omitempty"`
}
