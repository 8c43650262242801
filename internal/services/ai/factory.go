package ai

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ClientOptions selects and configures the generation and embedding providers.
// Embeddings always come from OpenAI so stored vectors stay comparable.
type ClientOptions struct {
	Provider       string
	Model          string
	BaseURL        string
	OpenAIKey      string
	AnthropicKey   string
	EmbeddingModel string

	Retry         RetryPolicy
	EmbedCache    EmbeddingCache
	EmbedCacheTTL time.Duration

	Logger    *zap.Logger
	DebugMode bool
}

// Clients are the provider-backed collaborators shared by the services
type Clients struct {
	Generator TextGenerator
	Embedder  Embedder
}

// NewClients builds retrying generation and (optionally cached) embedding clients
func NewClients(opts ClientOptions) (*Clients, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = logger
	}
	if opts.OpenAIKey == "" {
		return nil, fmt.Errorf("openai api key is required for embeddings")
	}

	apiKey := opts.OpenAIKey
	baseURL := opts.BaseURL
	if opts.Provider == "anthropic" {
		apiKey = opts.AnthropicKey
	}

	registry := NewDefaultRegistry(logger, opts.DebugMode)
	generator, err := registry.GetProvider(opts.Provider, map[string]string{
		"api_key":         apiKey,
		"model":           opts.Model,
		"base_url":        baseURL,
		"embedding_model": opts.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", opts.Provider, err)
	}

	embedBaseURL := ""
	if opts.Provider == "openai" {
		embedBaseURL = baseURL
	}
	embedProvider := NewOpenAIProvider(OpenAIOptions{
		APIKey:         opts.OpenAIKey,
		BaseURL:        embedBaseURL,
		EmbeddingModel: opts.EmbeddingModel,
		Logger:         logger,
		DebugMode:      opts.DebugMode,
	})

	var embedder Embedder = NewRetryingEmbedder(embedProvider, opts.Retry)
	if opts.EmbedCache != nil && opts.EmbedCacheTTL > 0 {
		embedder = NewCachedEmbedder(embedder, opts.EmbedCache, embedProvider.EmbeddingModel(), opts.EmbedCacheTTL, logger)
	}

	return &Clients{
		Generator: NewRetryingGenerator(generator, opts.Retry),
		Embedder:  embedder,
	}, nil
}
