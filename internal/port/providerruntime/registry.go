package providerruntime

import (
	"fmt"
	"sync"

	pr "github.com/overseer-hq/overseer/internal/domain/providerruntime"
)

// Registry maps provider ids to runtime adapters. A provider id maps to at
// most one adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register makes an adapter available by its id.
// Registering the same id twice is a programming error.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.ID()]; exists {
		panic(fmt.Sprintf("providerruntime: duplicate registration for %q", a.ID()))
	}
	r.adapters[a.ID()] = a
}

// Get returns the adapter for id, or a typed provider_unavailable error
// when no adapter is registered. The same error shape is used uniformly
// for resolveAuth, listModels, and execute lookups.
func (r *Registry) Get(id string) (Adapter, *pr.RuntimeError) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[id]
	if !ok {
		return nil, pr.NewRuntimeError(id, pr.ErrProviderUnavailable,
			fmt.Sprintf("no runtime adapter registered for provider %q", id))
	}
	return a, nil
}

// Available returns the ids of all registered adapters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
