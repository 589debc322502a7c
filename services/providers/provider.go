package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"synced-lyrics-go/services/lyrics"
)

// Provider is the uniform contract every lyrics source implements
type Provider interface {
	// Name returns the provider's configuration key (e.g., "lrclib", "genius")
	Name() string

	// Fetch resolves lyrics for the track. Every failure is absorbed and reported
	// as an empty Result; implementations never return partially verified content.
	Fetch(ctx context.Context, track lyrics.Track) lyrics.Result
}

// Closer is implemented by providers holding sessions or browsers that need teardown
type Closer interface {
	Close() error
}

// Registry holds the providers built for a run, keyed by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get retrieves a provider by name
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", name)
	}
	return p, nil
}

// Ordered returns the named providers in the given priority order
func (r *Registry) Ordered(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// List returns all registered provider names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

// Has checks if a provider is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// Close tears down every registered provider that holds resources and returns the first error
func (r *Registry) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var first error
	for _, name := range r.sortedLocked() {
		if c, ok := r.providers[name].(Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = fmt.Errorf("close %s: %w", name, err)
			}
		}
	}
	return first
}

func (r *Registry) sortedLocked() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
