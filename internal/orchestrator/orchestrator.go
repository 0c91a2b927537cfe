// Package orchestrator drives harvest runs: it pulls due sources from
// the registry, fans them out to a bounded worker pool, retries failed
// sources once, persists metrics, and computes the next global run
// time from the rolling metrics window.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonesrussell/goharvest/internal/adapter"
	"github.com/jonesrussell/goharvest/internal/dedup"
	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/logger"
	"github.com/jonesrussell/goharvest/internal/metrics"
	"github.com/jonesrussell/goharvest/internal/processor"
	"github.com/jonesrussell/goharvest/internal/registry"
)

// ErrAlreadyRunning is returned when a run is triggered while another
// run is active. Triggers are rejected, never queued.
var ErrAlreadyRunning = errors.New("harvest run already in progress")

// Run states.
const (
	stateIdle int32 = iota
	stateRunning
)

// SourceRegistry is the registry surface the orchestrator needs.
type SourceRegistry interface {
	ListDue(ctx context.Context, limit int) ([]domain.Source, error)
	Get(ctx context.Context, id string) (*domain.Source, error)
	RecordOutcome(ctx context.Context, sourceID string, outcome registry.Outcome) error
}

// ContentStore is the storage surface the orchestrator needs.
type ContentStore interface {
	Store(ctx context.Context, content *domain.StoredContent) (string, error)
}

// MetricsRepository persists run outcomes and serves the rolling
// window back to the rescheduler.
type MetricsRepository interface {
	RecordRun(ctx context.Context, run *domain.RunMetrics) error
	RecordSources(ctx context.Context, rows []domain.SourceMetrics) error
	Window(ctx context.Context, since time.Time) (domain.MetricsWindow, error)
}

// FingerprintCache is the optional fast-path dedup check.
type FingerprintCache interface {
	Seen(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, fingerprint string) error
}

// Hooks are optional observation points on the run loop. Nil funcs are
// skipped.
type Hooks struct {
	BeforeFetch func(source *domain.Source)
	AfterItem   func(source *domain.Source, item *domain.NormalizedItem, err error)
	AfterSource func(result SourceResult)
}

// Config tunes a harvest run.
type Config struct {
	SourceLimit   int
	Concurrency   int
	RetryCount    int
	FetchTimeout  time.Duration
	BaseInterval  time.Duration
	MetricsWindow time.Duration
	MinRunGap     time.Duration
	MaxRunGap     time.Duration
}

// SourceResult is the final per-source outcome of a run.
type SourceResult struct {
	SourceID       string `json:"source_id"`
	SourceName     string `json:"source_name"`
	ItemsFound     int    `json:"items_found"`
	ItemsProcessed int    `json:"items_processed"`
	NewItems       int    `json:"new_items"`
	Errors         int    `json:"errors"`
	Retried        bool   `json:"retried"`
	Error          string `json:"error,omitempty"`

	duration time.Duration

	// Validators the adapter observed during the attempt, persisted
	// with the outcome so the next poll is conditional.
	etag         string
	lastModified string
}

// Failed reports whether the source needs a retry pass.
func (r SourceResult) Failed() bool { return r.Errors > 0 }

// RunResult summarizes one completed run.
type RunResult struct {
	SourcesProcessed int            `json:"sources_processed"`
	ItemsFound       int            `json:"items_found"`
	ItemsProcessed   int            `json:"items_processed"`
	NewItems         int            `json:"new_items"`
	Errors           int            `json:"errors"`
	Duration         time.Duration  `json:"duration"`
	NextRunAt        time.Time      `json:"next_run_at"`
	Sources          []SourceResult `json:"sources"`
}

// Status is the externally visible scheduler state.
type Status struct {
	Running      bool       `json:"running"`
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	AdapterTypes []string   `json:"adapter_types"`
}

// Orchestrator is the single-flight harvest coordinator.
type Orchestrator struct {
	registry     SourceRegistry
	store        ContentStore
	metrics      MetricsRepository
	processor    processor.Processor
	fingerprints FingerprintCache
	adapters     *adapter.Registry
	hooks        Hooks
	cfg          Config
	log          logger.Interface

	state     atomic.Int32
	mu        sync.Mutex
	lastRunAt *time.Time
	nextRunAt *time.Time

	now func() time.Time
}

// New creates an orchestrator. fingerprints may be nil to disable the
// cache fast path.
func New(
	reg SourceRegistry,
	store ContentStore,
	metricsRepo MetricsRepository,
	proc processor.Processor,
	fingerprints *dedup.Cache,
	adapters *adapter.Registry,
	cfg Config,
	log logger.Interface,
) *Orchestrator {
	if log == nil {
		log = logger.NewNoop()
	}
	o := &Orchestrator{
		registry:  reg,
		store:     store,
		metrics:   metricsRepo,
		processor: proc,
		adapters:  adapters,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
	// A typed nil must not masquerade as a usable cache behind the
	// interface.
	if fingerprints != nil {
		o.fingerprints = fingerprints
	}
	return o
}

// SetHooks installs run observation hooks. Call before the first run.
func (o *Orchestrator) SetHooks(hooks Hooks) { o.hooks = hooks }

// Status reports the current scheduler state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	var types []string
	if o.adapters != nil {
		for _, t := range o.adapters.Types() {
			types = append(types, string(t))
		}
	}
	return Status{
		Running:      o.state.Load() == stateRunning,
		LastRunAt:    o.lastRunAt,
		NextRunAt:    o.nextRunAt,
		AdapterTypes: types,
	}
}

// Run executes one full harvest over all due sources. A concurrent
// call while a run is active fails with ErrAlreadyRunning without
// touching any source's schedule.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.state.CompareAndSwap(stateIdle, stateRunning) {
		return nil, ErrAlreadyRunning
	}
	defer o.state.Store(stateIdle)

	sources, err := o.registry.ListDue(ctx, o.cfg.SourceLimit)
	if err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}

	return o.runSources(ctx, sources)
}

// RunSource executes a run over a single source by id, bypassing the
// due check but honoring the single-flight guard.
func (o *Orchestrator) RunSource(ctx context.Context, id string) (*RunResult, error) {
	if !o.state.CompareAndSwap(stateIdle, stateRunning) {
		return nil, ErrAlreadyRunning
	}
	defer o.state.Store(stateIdle)

	source, err := o.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	return o.runSources(ctx, []domain.Source{*source})
}

// runSources is the shared run loop: first pass with bounded
// concurrency, one retry pass over failed sources, metrics, and the
// global reschedule. A panic escaping the loop is contained and
// surfaced as a structured failure.
func (o *Orchestrator) runSources(ctx context.Context, sources []domain.Source) (result *RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			sysErr := &SystemError{Detail: "harvest run panicked", Cause: fmt.Errorf("%v", r)}
			o.log.Error("harvest run failed", "error", sysErr)
			result = nil
			err = sysErr
		}
	}()

	start := o.now()
	o.log.Info("harvest run started", "sources", len(sources))

	results := o.firstPass(ctx, sources)
	o.retryPass(ctx, sources, results)

	collector := metrics.NewCollector()
	newItems := 0
	for i := range sources {
		res := results[sources[i].ID]
		if res == nil {
			continue
		}
		collector.RecordSource(res.SourceID, res.ItemsFound, res.ItemsProcessed, res.Errors, res.duration)
		o.recordOutcome(ctx, res)
		newItems += res.NewItems
	}

	totals := collector.RunTotals()
	totals.DurationSeconds = o.now().Sub(start).Seconds()
	if recordErr := o.metrics.RecordRun(ctx, &totals); recordErr != nil {
		o.log.Error("failed to record run metrics", "error", recordErr)
	}
	if recordErr := o.metrics.RecordSources(ctx, collector.SourceRows()); recordErr != nil {
		o.log.Error("failed to record source metrics", "error", recordErr)
	}

	nextRun := o.reschedule(ctx)

	result = &RunResult{
		SourcesProcessed: totals.SourcesProcessed,
		ItemsFound:       totals.ItemsFound,
		ItemsProcessed:   totals.ItemsProcessed,
		NewItems:         newItems,
		Errors:           totals.Errors,
		Duration:         o.now().Sub(start),
		NextRunAt:        nextRun,
		Sources:          orderedResults(sources, results),
	}

	now := o.now()
	o.mu.Lock()
	o.lastRunAt = &now
	o.nextRunAt = &nextRun
	o.mu.Unlock()

	o.log.Info("harvest run finished",
		"sources", result.SourcesProcessed,
		"items_found", result.ItemsFound,
		"items_processed", result.ItemsProcessed,
		"new_items", result.NewItems,
		"errors", result.Errors,
		"duration", result.Duration.String(),
	)

	return result, nil
}

// firstPass harvests every source through the worker pool.
func (o *Orchestrator) firstPass(ctx context.Context, sources []domain.Source) map[string]*SourceResult {
	results := make(map[string]*SourceResult, len(sources))
	var mu sync.Mutex

	concurrency := o.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i := range sources {
		source := sources[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			res := o.harvestSource(ctx, &source)
			mu.Lock()
			results[source.ID] = res
			mu.Unlock()
		}()
	}
	wg.Wait()

	return results
}

// retryPass re-harvests sources that failed the first pass. It starts
// only after the first pass fully completes, and its result replaces
// the first-pass result.
func (o *Orchestrator) retryPass(ctx context.Context, sources []domain.Source, results map[string]*SourceResult) {
	retries := o.cfg.RetryCount
	if retries <= 0 {
		return
	}

	for i := range sources {
		source := sources[i]
		res := results[source.ID]
		if res == nil || !res.Failed() {
			continue
		}

		for attempt := 0; attempt < retries; attempt++ {
			o.log.Info("retrying failed source", "source", source.Name)
			retry := o.harvestSource(ctx, &source)
			retry.Retried = true
			results[source.ID] = retry
			if !retry.Failed() {
				break
			}
		}
	}
}

// recordOutcome feeds the final per-source result into the registry's
// adaptive scheduler.
func (o *Orchestrator) recordOutcome(ctx context.Context, res *SourceResult) {
	outcome := registry.Outcome{
		Success:      !res.Failed(),
		ItemsFound:   res.ItemsFound,
		NewItems:     res.NewItems,
		ETag:         res.etag,
		LastModified: res.lastModified,
	}
	if err := o.registry.RecordOutcome(ctx, res.SourceID, outcome); err != nil {
		o.log.Error("failed to record source outcome",
			"source", res.SourceName,
			"error", err,
		)
	}
}

func orderedResults(sources []domain.Source, results map[string]*SourceResult) []SourceResult {
	out := make([]SourceResult, 0, len(results))
	for i := range sources {
		if res := results[sources[i].ID]; res != nil {
			out = append(out, *res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return out
}
