package ai

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// TextGenerator produces a completion for a single prompt
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text to a fixed-length vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderFactory creates a text generator from provider-specific settings
// (api_key, model, base_url).
type ProviderFactory func(config map[string]string, logger *zap.Logger, debugMode bool) (TextGenerator, error)

// ProviderRegistry stores available AI providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
	logger    *zap.Logger
	debugMode bool
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry(logger *zap.Logger, debugMode bool) *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
		logger:    logger,
		debugMode: debugMode,
	}
}

// NewDefaultRegistry returns a registry with every built-in provider registered
func NewDefaultRegistry(logger *zap.Logger, debugMode bool) *ProviderRegistry {
	registry := NewProviderRegistry(logger, debugMode)
	RegisterOpenAI(registry)
	RegisterAnthropic(registry)
	return registry
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (TextGenerator, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return factory(config, r.logger, r.debugMode)
}

// Names lists the registered provider names in sorted order
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
