package domain

import "time"

// RunMetrics is an append-only record of one orchestrator run.
type RunMetrics struct {
	ID               int64     `db:"id" json:"id"`
	SourcesProcessed int       `db:"sources_processed" json:"sources_processed"`
	ItemsFound       int       `db:"items_found" json:"items_found"`
	ItemsProcessed   int       `db:"items_processed" json:"items_processed"`
	Errors           int       `db:"errors" json:"errors"`
	DurationSeconds  float64   `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// SourceMetrics is an append-only per-source outcome record. The
// registry's scheduler reads a rolling window of these rows.
type SourceMetrics struct {
	ID              int64     `db:"id" json:"id"`
	SourceID        string    `db:"source_id" json:"source_id"`
	ItemsFound      int       `db:"items_found" json:"items_found"`
	ItemsProcessed  int       `db:"items_processed" json:"items_processed"`
	Errors          int       `db:"errors" json:"errors"`
	DurationSeconds float64   `db:"duration_seconds" json:"duration_seconds"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// MetricsWindow aggregates source metrics over a rolling window.
type MetricsWindow struct {
	Sources        int     `db:"sources"`
	ItemsFound     int     `db:"items_found"`
	ItemsProcessed int     `db:"items_processed"`
	Errors         int     `db:"errors"`
	Attempts       int     `db:"attempts"`
	AvgItemYield   float64 `db:"avg_item_yield"`
}

// ErrorRate returns the fraction of attempts that recorded at least
// one error, in [0, 1]. Zero attempts yields zero.
func (w MetricsWindow) ErrorRate() float64 {
	if w.Attempts == 0 {
		return 0
	}
	return float64(w.Errors) / float64(w.Attempts)
}
