// Package metrics records crawl outcomes: in-memory counters while a
// run is active, append-only rows afterwards, and the rolling window
// the scheduler reads back.
package metrics

import (
	"sync"
	"time"

	"github.com/jonesrussell/goharvest/internal/domain"
)

// Collector accumulates per-run counters. Safe for concurrent use by
// source workers.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time
	sources   map[string]*domain.SourceMetrics
}

// NewCollector starts a collector for one run.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		sources:   make(map[string]*domain.SourceMetrics),
	}
}

// RecordSource sets the final counters for one source. A retry pass
// calling again for the same source replaces the earlier counters.
func (c *Collector) RecordSource(sourceID string, found, processed, errs int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sources[sourceID] = &domain.SourceMetrics{
		SourceID:        sourceID,
		ItemsFound:      found,
		ItemsProcessed:  processed,
		Errors:          errs,
		DurationSeconds: duration.Seconds(),
	}
}

// SourceRows returns a copy of the per-source rows recorded so far.
func (c *Collector) SourceRows() []domain.SourceMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([]domain.SourceMetrics, 0, len(c.sources))
	for _, m := range c.sources {
		rows = append(rows, *m)
	}
	return rows
}

// RunTotals aggregates the recorded sources into one run row. Totals
// are recomputed from final per-source counters, so a successful retry
// erases the errors of the first pass.
func (c *Collector) RunTotals() domain.RunMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	totals := domain.RunMetrics{
		DurationSeconds: time.Since(c.startTime).Seconds(),
	}
	for _, m := range c.sources {
		totals.SourcesProcessed++
		totals.ItemsFound += m.ItemsFound
		totals.ItemsProcessed += m.ItemsProcessed
		totals.Errors += m.Errors
	}
	return totals
}
