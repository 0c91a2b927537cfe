package processor_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/processor"
)

func TestDefault_ProcessMapsFields(t *testing.T) {
	t.Parallel()

	p := processor.NewDefault("article")
	published := time.Now().Add(-2 * time.Hour)

	item := &domain.NormalizedItem{
		Title:       "Budget Approved",
		Content:     strings.Repeat("Council approved the budget. ", 100),
		URL:         "https://example.com/news/budget",
		SourceID:    "s1",
		SourceName:  "city-news",
		Author:      "A. Reporter",
		Summary:     "The budget passed.",
		PublishDate: &published,
		Meta:        map[string]any{"section": "politics"},
	}

	content, err := p.Process(context.Background(), item)
	require.NoError(t, err)
	require.NotNil(t, content)

	assert.Equal(t, "article", content.Type)
	assert.Equal(t, "Budget Approved", content.Title)
	assert.Equal(t, "https://example.com/news/budget", content.SourceURL)
	assert.Equal(t, "s1", content.SourceID)
	assert.Equal(t, domain.ContentStatusPending, content.Status)
	assert.Equal(t, "A. Reporter", content.Extra["author"])
	assert.Equal(t, "politics", content.Extra["section"])

	// Long recent content with byline and summary scores high.
	assert.Equal(t, 1.0, content.QualityScore)
}

func TestDefault_ScoreOrdersByCompleteness(t *testing.T) {
	t.Parallel()

	p := processor.NewDefault("")

	bare, err := p.Process(context.Background(), &domain.NormalizedItem{
		Title: "Thin", URL: "https://example.com/thin",
	})
	require.NoError(t, err)

	rich, err := p.Process(context.Background(), &domain.NormalizedItem{
		Title:   "Rich",
		URL:     "https://example.com/rich",
		Content: strings.Repeat("x", 3000),
		Summary: "s",
		Author:  "a",
	})
	require.NoError(t, err)

	assert.Less(t, bare.QualityScore, rich.QualityScore)
	assert.GreaterOrEqual(t, bare.QualityScore, 0.0)
	assert.LessOrEqual(t, rich.QualityScore, 1.0)
}

func TestDefault_RejectsInvalidItem(t *testing.T) {
	t.Parallel()

	p := processor.NewDefault("article")

	_, err := p.Process(context.Background(), &domain.NormalizedItem{Title: "No URL"})
	assert.Error(t, err)
}
