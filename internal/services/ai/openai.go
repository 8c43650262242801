package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default chat model
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultEmbeddingModel produces 1536-dimension vectors
	DefaultEmbeddingModel = "text-embedding-3-small"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default HTTP timeout for API calls
	DefaultTimeout = 60 * time.Second

	// MaxEmbeddingInputChars bounds embedding input; longer text is truncated (about 8k tokens)
	MaxEmbeddingInputChars = 24000

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
	// ErrNoEmbeddingInResponse is returned when the embeddings response is empty
	ErrNoEmbeddingInResponse = "no embedding in response"
)

// OpenAIProvider generates text and embeddings with the OpenAI API
type OpenAIProvider struct {
	client         openai.Client
	model          string
	embeddingModel string
	logger         *zap.Logger
	debugMode      bool
}

// OpenAIOptions configures an OpenAIProvider
type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Logger         *zap.Logger
	DebugMode      bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = DefaultEmbeddingModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenAIBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client:         client,
		model:          opts.Model,
		embeddingModel: opts.EmbeddingModel,
		logger:         opts.Logger,
		debugMode:      opts.DebugMode,
	}
}

// EmbeddingModel returns the embedding model name
func (p *OpenAIProvider) EmbeddingModel() string {
	return p.embeddingModel
}

// Generate sends prompt as a single user message and returns the first choice
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}

	p.debugRequest(ctx, "generate", prompt)

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.debugError(ctx, "generate", err, latency)
		return "", wrapProviderError("generate completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	p.debugResponse(ctx, "generate", content, latency)
	return content, nil
}

// Embed returns the embedding of text. Empty input is rejected and input longer
// than MaxEmbeddingInputChars is truncated on a rune boundary.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	input, err := PrepareEmbeddingInput(text)
	if err != nil {
		return nil, err
	}

	p.debugRequest(ctx, "embed", input)

	start := time.Now()
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(input)},
		Model: openai.EmbeddingModel(p.embeddingModel),
	})
	latency := time.Since(start)
	if err != nil {
		p.debugError(ctx, "embed", err, latency)
		return nil, wrapProviderError("create embedding", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New(ErrNoEmbeddingInResponse)
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", "embed"),
			zap.String("model", p.embeddingModel),
			zap.Int("dimensions", len(vec)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return vec, nil
}

// PrepareEmbeddingInput trims text, rejects empty input and truncates oversize input
func PrepareEmbeddingInput(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperr.Validation("embedding input must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > MaxEmbeddingInputChars {
		trimmed = string([]rune(trimmed)[:MaxEmbeddingInputChars])
	}
	return trimmed, nil
}

func (p *OpenAIProvider) debugRequest(ctx context.Context, operation, prompt string) {
	if p.logger == nil || !p.debugMode {
		return
	}
	p.logger.Debug("llm_api_request", append(callFields(ctx),
		zap.String("provider", "openai"),
		zap.String("operation", operation),
		zap.String("model", p.modelFor(operation)),
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", Preview(prompt, true)),
	)...)
}

func (p *OpenAIProvider) debugError(ctx context.Context, operation string, err error, latency time.Duration) {
	if p.logger == nil || !p.debugMode {
		return
	}
	p.logger.Debug("llm_api_error", append(callFields(ctx),
		zap.String("provider", "openai"),
		zap.String("operation", operation),
		zap.String("model", p.modelFor(operation)),
		zap.Error(err),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)...)
}

func (p *OpenAIProvider) debugResponse(ctx context.Context, operation, content string, latency time.Duration) {
	if p.logger == nil || !p.debugMode {
		return
	}
	p.logger.Debug("llm_api_response", append(callFields(ctx),
		zap.String("provider", "openai"),
		zap.String("operation", operation),
		zap.String("model", p.modelFor(operation)),
		zap.Int("response_length", len(content)),
		zap.String("response_preview", Preview(content, true)),
		zap.Int64("latency_ms", latency.Milliseconds()),
	)...)
}

func (p *OpenAIProvider) modelFor(operation string) string {
	if operation == "embed" {
		return p.embeddingModel
	}
	return p.model
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string, logger *zap.Logger, debugMode bool) (TextGenerator, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:         apiKey,
			BaseURL:        config["base_url"],
			Model:          config["model"],
			EmbeddingModel: config["embedding_model"],
			Logger:         logger,
			DebugMode:      debugMode,
		}), nil
	})
}
