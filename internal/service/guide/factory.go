package guide

import (
	"fmt"

	"guidewell/internal/config"
	domainguide "guidewell/internal/domain/services/guide"
	"guidewell/internal/service/guide/lorem"
	"guidewell/internal/service/guide/openai"
)

// ProviderFactory creates provider instances from config.
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name.
//
// Supported providers:
//   - "openai" - GPT models via the OpenAI API
//   - "lorem" - Mock provider for development (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (domainguide.Provider, error) {
	switch providerName {
	case "openai":
		return f.createOpenAIProvider()

	case "lorem":
		return lorem.NewProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

func (f *ProviderFactory) createOpenAIProvider() (domainguide.Provider, error) {
	if f.config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return openai.NewProvider(f.config.OpenAIAPIKey), nil
}
