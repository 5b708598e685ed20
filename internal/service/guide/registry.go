package guide

import (
	"fmt"
	"sync"

	domainguide "guidewell/internal/domain/services/guide"
)

// ProviderRegistry routes model requests to the matching provider and
// caches provider instances for reuse.
type ProviderRegistry struct {
	factory *ProviderFactory
	cache   map[string]domainguide.Provider
	mu      sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory *ProviderFactory) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		cache:   make(map[string]domainguide.Provider),
	}
}

// GetProvider returns the provider instance for the given provider name,
// creating and caching it on first use.
func (r *ProviderRegistry) GetProvider(provider string) (domainguide.Provider, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	// Fast path: cache hit under read lock
	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	created, err := r.factory.GetProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	r.cache[provider] = created

	return created, nil
}

// Validate checks that the registry is properly configured.
// Should be called at startup to fail fast if misconfigured.
func (r *ProviderRegistry) Validate() error {
	if r.factory == nil {
		return fmt.Errorf("provider factory is not configured")
	}
	return nil
}
