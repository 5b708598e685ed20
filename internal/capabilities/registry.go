package capabilities

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry maps guide model names to their capabilities, loaded from
// embedded YAML so the binary is self-contained.
type Registry struct {
	models map[string]ModelCapabilities
	mu     sync.RWMutex
}

// NewRegistry loads the embedded capability files.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		models: make(map[string]ModelCapabilities),
	}

	for _, provider := range []string{"openai", "lorem"} {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read %s: %w", filename, err)
	}

	var caps ProviderCapabilities
	if err := yaml.Unmarshal(data, &caps); err != nil {
		return fmt.Errorf("unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range caps.Models {
		m.Provider = caps.Provider
		r.models[m.Name] = m
	}

	return nil
}

// Get returns capabilities for a model, or an error for unknown models.
func (r *Registry) Get(model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.models[model]
	if !ok {
		return nil, fmt.Errorf("unknown guide model: %s", model)
	}
	return &caps, nil
}

// ProviderFor returns the provider name serving a model.
func (r *Registry) ProviderFor(model string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.models[model]
	if !ok {
		return "", false
	}
	return caps.Provider, true
}

// All returns every registered model, for the capabilities endpoint.
func (r *Registry) All() []ModelCapabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelCapabilities, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out
}
