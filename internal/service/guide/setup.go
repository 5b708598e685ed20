package guide

import (
	"fmt"
	"log/slog"

	"guidewell/internal/config"
)

// SetupProviders initializes the provider factory and registry.
// Returns a configured ProviderRegistry or an error if setup fails.
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*ProviderRegistry, error) {
	factory := NewProviderFactory(cfg)
	registry := NewProviderRegistry(factory)

	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("provider registry validation failed: %w", err)
	}

	if cfg.OpenAIAPIKey != "" {
		logger.Info("provider available", "name", "openai", "models", "gpt-*")
	} else {
		logger.Warn("OPENAI_API_KEY not set - openai provider not available")
	}
	logger.Info("provider available", "name", "lorem", "models", "lorem-*")

	return registry, nil
}
