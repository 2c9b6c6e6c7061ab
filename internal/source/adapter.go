// Package source defines the adapter boundary to external scraping
// services and the concrete adapters the orchestrator drives. Adapters
// return source-native raw records; normalization happens downstream.
package source

import (
	"context"
	"sort"
	"sync"

	"github.com/kmicpaps/lead-gen-sub001/internal/model"
	"github.com/kmicpaps/lead-gen-sub001/internal/normalize"
)

// Query describes the operator's search intent, threaded explicitly
// through every call, never ambient state.
type Query struct {
	Keywords   string   `json:"keywords,omitempty"`
	Country    string   `json:"country,omitempty"`
	Titles     []string `json:"titles,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

// Adapter is one external lead source. Fetch returns up to maxResults raw
// records; failures surface as resilience.AuthError,
// resilience.TransientError, or a plain error.
type Adapter interface {
	// ID identifies the adapter in reports and mappings.
	ID() string
	// Fetch pulls raw records from the source.
	Fetch(ctx context.Context, q Query, maxResults int) ([]model.RawLead, error)
	// Mapping is the adapter's static field mapping, validated at
	// registration time.
	Mapping() normalize.Mapping
	// NativeFilters lists filter predicates the source enforces at fetch
	// time (rather than post-hoc); the quality gap report consumes this.
	NativeFilters() []string
}

// Registry holds registered adapters. Registration validates the
// adapter's mapping so schema problems fail fast, not mid-run.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter after validating its mapping.
func (r *Registry) Register(a Adapter) error {
	if err := a.Mapping().Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID()] = a
	return nil
}

// Get returns an adapter by id, or nil.
func (r *Registry) Get(id string) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.adapters[id]
}

// List returns registered adapter ids, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
