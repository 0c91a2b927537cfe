package orchestrator

import (
	"context"
	"fmt"

	"github.com/jonesrussell/goharvest/internal/domain"
	"github.com/jonesrussell/goharvest/internal/storage"
)

// harvestSource fetches and processes one source. Per-item failures
// are counted and skipped; an adapter-level failure marks the whole
// source failed for this pass. A panic inside the source is contained
// here so one broken source never takes down the run.
func (o *Orchestrator) harvestSource(ctx context.Context, source *domain.Source) (result *SourceResult) {
	start := o.now()
	result = &SourceResult{SourceID: source.ID, SourceName: source.Name}
	defer func() {
		result.duration = o.now().Sub(start)
		result.etag = source.ETag
		result.lastModified = source.LastModified
		if r := recover(); r != nil {
			sysErr := &SystemError{
				Detail: "source harvest panicked: " + source.Name,
				Cause:  fmt.Errorf("%v", r),
			}
			o.log.Error("source harvest panicked", "source", source.Name, "error", sysErr)
			result.Errors++
			result.Error = sysErr.Error()
		}
		if o.hooks.AfterSource != nil {
			o.hooks.AfterSource(*result)
		}
	}()

	ad, err := o.adapters.Resolve(source.Type)
	if err != nil {
		o.log.Error("no adapter for source",
			"source", source.Name,
			"type", string(source.Type),
		)
		result.Errors++
		result.Error = err.Error()
		return result
	}

	if o.hooks.BeforeFetch != nil {
		o.hooks.BeforeFetch(source)
	}

	fetchCtx := ctx
	if o.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, o.cfg.FetchTimeout)
		defer cancel()
	}

	items, err := ad.Fetch(fetchCtx, source)
	if err != nil {
		o.log.Warn("source fetch failed",
			"source", source.Name,
			"error", err,
		)
		result.Errors++
		result.Error = err.Error()
		return result
	}

	if source.QuotaMaxItems > 0 && len(items) > source.QuotaMaxItems {
		items = items[:source.QuotaMaxItems]
	}
	if source.QuotaMaxSize > 0 {
		items = capBySize(items, source.QuotaMaxSize)
	}
	result.ItemsFound = len(items)

	for i := range items {
		item := &items[i]
		item.SourceID = source.ID
		item.SourceName = source.Name
		if item.SourceURL == "" {
			item.SourceURL = source.URL
		}

		itemErr := o.processItem(ctx, item, result)
		if o.hooks.AfterItem != nil {
			o.hooks.AfterItem(source, item, itemErr)
		}
		if itemErr != nil {
			o.log.Warn("item processing failed",
				"source", source.Name,
				"url", item.URL,
				"error", itemErr,
			)
			result.Errors++
		}
	}

	return result
}

// capBySize drops the tail of items once their cumulative content and
// summary bytes exceed the source's size quota.
func capBySize(items []domain.NormalizedItem, maxBytes int) []domain.NormalizedItem {
	total := 0
	for i := range items {
		total += len(items[i].Content) + len(items[i].Summary)
		if total > maxBytes {
			return items[:i]
		}
	}
	return items
}

// processItem runs one item through the processor and storage,
// counting processed and new items on the result.
func (o *Orchestrator) processItem(ctx context.Context, item *domain.NormalizedItem, result *SourceResult) error {
	content, err := o.processor.Process(ctx, item)
	if err != nil {
		return fmt.Errorf("process item: %w", err)
	}
	if content == nil {
		// Rejected by the processor, not an error.
		return nil
	}

	fingerprint := storage.Fingerprint(content.Title, content.Content)
	content.Fingerprint = fingerprint

	if o.fingerprints != nil {
		seen, seenErr := o.fingerprints.Seen(ctx, fingerprint)
		if seenErr != nil {
			o.log.Warn("fingerprint cache unavailable", "error", seenErr)
		} else if seen {
			result.ItemsProcessed++
			return nil
		}
	}

	id, err := o.store.Store(ctx, content)
	if err != nil {
		return fmt.Errorf("store item: %w", err)
	}

	result.ItemsProcessed++
	// Store returns the pre-existing id when the fingerprint was
	// already indexed; a fresh insert keeps the id we generated.
	if id == content.ID {
		result.NewItems++
	}

	if o.fingerprints != nil {
		if markErr := o.fingerprints.Mark(ctx, fingerprint); markErr != nil {
			o.log.Warn("fingerprint cache mark failed", "error", markErr)
		}
	}

	return nil
}
