// Package processor turns normalized items into storable content
// records. The default processor is a passthrough with a heuristic
// quality score; richer enrichment implements the same interface.
package processor

import (
	"context"
	"time"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/domain"
)

// Processor prepares one normalized item for storage. A nil result
// with a nil error means the item was rejected and should be skipped
// without counting as an error.
type Processor interface {
	Process(ctx context.Context, item *domain.NormalizedItem) (*domain.StoredContent, error)
}

// Quality score heuristics.
const (
	baseScore        = 0.3
	contentScoreCap  = 0.4
	contentScoreSpan = 2000 // characters for the full content bonus
	summaryBonus     = 0.05
	authorBonus      = 0.05
	recencyBonus     = 0.2
	recencyWindow    = 48 * time.Hour
)

// Default is the passthrough processor.
type Default struct {
	contentType string
	now         func() time.Time
}

// NewDefault creates the passthrough processor. contentType labels the
// stored records (e.g. "article").
func NewDefault(contentType string) *Default {
	if contentType == "" {
		contentType = "article"
	}
	return &Default{contentType: contentType, now: time.Now}
}

// Process maps the item onto a pending content record and scores it.
func (p *Default) Process(_ context.Context, item *domain.NormalizedItem) (*domain.StoredContent, error) {
	if !item.Valid() {
		return nil, &adapter.ValidationError{Detail: "item missing title or url"}
	}

	content := &domain.StoredContent{
		Type:         p.contentType,
		Title:        item.Title,
		Content:      item.Content,
		Summary:      item.Summary,
		SourceURL:    item.URL,
		SourceID:     item.SourceID,
		QualityScore: p.score(item),
		Status:       domain.ContentStatusPending,
		PublishDate:  item.PublishDate,
	}

	extra := domain.JSONBMap{}
	if item.Author != "" {
		extra["author"] = item.Author
	}
	if item.Image != "" {
		extra["image"] = item.Image
	}
	if item.SourceName != "" {
		extra["source_name"] = item.SourceName
	}
	if len(item.Media) > 0 {
		extra["media"] = item.Media
	}
	for k, v := range item.Meta {
		extra[k] = v
	}
	if len(extra) > 0 {
		content.Extra = extra
	}

	return content, nil
}

// score estimates content quality in [0, 1] from length, completeness,
// and recency.
func (p *Default) score(item *domain.NormalizedItem) float64 {
	score := baseScore

	length := len(item.Content)
	if length > contentScoreSpan {
		length = contentScoreSpan
	}
	score += contentScoreCap * float64(length) / contentScoreSpan

	if item.Summary != "" {
		score += summaryBonus
	}
	if item.Author != "" {
		score += authorBonus
	}
	if item.PublishDate != nil {
		age := p.now().Sub(*item.PublishDate)
		if age >= 0 && age <= recencyWindow {
			score += recencyBonus
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}
