package connectors

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/iocsync/internal/connectors/feedhttp"
	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
)

// BuilderFunc creates a FeedAdapter from the feed's static configuration.
// It returns domain.ErrMissingCredential when a required key is absent.
type BuilderFunc func(cfg domain.FeedConfig, client *feedhttp.Client) (driven.FeedAdapter, error)

// Registry maps source names to adapter builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder under name, replacing any existing one.
// Name should match the adapter's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
}

// Get returns the builder registered under name.
func (r *Registry) Get(name string) (BuilderFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[name]
	return b, ok
}

// Has returns true if a builder with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// All returns a snapshot of the registry. Changes to the returned map
// do not affect the registry.
func (r *Registry) All() map[string]BuilderFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.builders)
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.builders))
}

// Build creates the adapter registered under name.
func (r *Registry) Build(name string, cfg domain.FeedConfig, client *feedhttp.Client) (driven.FeedAdapter, error) {
	builder, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown adapter %q: %w", name, domain.ErrNotFound)
	}
	return builder(cfg, client)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a builder to the process-wide registry.
func Register(name string, builder BuilderFunc) {
	defaultRegistry.Register(name, builder)
}
