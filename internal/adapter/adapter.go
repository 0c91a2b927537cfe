// Package adapter defines the source adapter contract and the registry
// the orchestrator resolves adapters from.
package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jonesrussell/goharvest/internal/domain"
)

// Adapter fetches and normalizes items from one kind of source.
// An empty result means "no items"; an error means the source is
// unreachable or unparseable this cycle. Adapters never swallow
// fetch or parse failures.
type Adapter interface {
	// Type returns the source type this adapter handles.
	Type() domain.SourceType
	// Fetch retrieves and normalizes items for the given source.
	Fetch(ctx context.Context, source *domain.Source) ([]domain.NormalizedItem, error)
}

// Registry is a thread-safe adapter lookup keyed by source type.
// New source types plug in here; orchestration logic never changes.
type Registry struct {
	mu       sync.RWMutex
	adapters map[domain.SourceType]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.SourceType]Adapter)}
}

// Register adds an adapter, replacing any previous adapter for the
// same source type.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Type()] = a
}

// Resolve returns the adapter for a source type, or a ConfigError if
// none is registered.
func (r *Registry) Resolve(t domain.SourceType) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[t]
	if !ok {
		return nil, &ConfigError{
			Detail: fmt.Sprintf("no adapter registered for source type %q", t),
		}
	}
	return a, nil
}

// Types returns the registered source types, sorted for stable output.
func (r *Registry) Types() []domain.SourceType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.SourceType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
