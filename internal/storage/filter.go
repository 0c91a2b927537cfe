package storage

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/goharvest/internal/domain"
)

// MaxQueryLimit caps a single query's page size.
const (
	MaxQueryLimit     = 1000
	DefaultQueryLimit = 50
)

// Filter selects stored content for Query and Count.
type Filter struct {
	Type       string
	Status     domain.ContentStatus
	SourceID   string
	MinQuality *float64
	Search     string // matched against title and content

	SortBy    string // created_at, updated_at, publish_date, quality_score, title
	SortOrder string // asc, desc
	Limit     int
	Offset    int
}

// buildWhere renders the filter into an AND clause and its args,
// starting placeholders at $1.
func buildWhere(filter Filter) (string, []any) {
	var clauses []string
	args := make([]any, 0)
	pos := 1

	add := func(clause string, value any) {
		clauses = append(clauses, fmt.Sprintf(clause, pos))
		args = append(args, value)
		pos++
	}

	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.SourceID != "" {
		add("source_id = $%d", filter.SourceID)
	}
	if filter.MinQuality != nil {
		add("quality_score >= $%d", *filter.MinQuality)
	}
	if filter.Search != "" {
		clauses = append(clauses,
			fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", pos, pos))
		args = append(args, "%"+filter.Search+"%")
		pos++
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func buildOrder(filter Filter) string {
	sortBy := filter.SortBy
	validSort := map[string]bool{
		"created_at": true, "updated_at": true, "publish_date": true,
		"quality_score": true, "title": true,
	}
	if !validSort[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	return fmt.Sprintf(" ORDER BY %s %s", sortBy, order)
}

func clampPaging(filter Filter) (limit, offset int) {
	limit = filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	offset = filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
