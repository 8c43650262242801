package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const (
	// DefaultAnthropicModel is used when AI_MODEL is unset and AI_PROVIDER=anthropic
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	// DefaultAnthropicMaxTokens caps a single post generation
	DefaultAnthropicMaxTokens = 1024

	// ErrNoTextInResponse is returned when a message response carries no text block
	ErrNoTextInResponse = "no text content in response"
)

// AnthropicProvider generates text with the Anthropic Messages API
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *zap.Logger
	debugMode bool
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *AnthropicProvider {
	if model == "" {
		model = DefaultAnthropicModel
	}
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: DefaultAnthropicMaxTokens,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Generate sends prompt as a single user turn and concatenates the text blocks of the reply
func (p *AnthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request", append(callFields(ctx),
			zap.String("provider", "anthropic"),
			zap.String("operation", "generate"),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", Preview(prompt, true)),
		)...)
	}

	start := time.Now()
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error", append(callFields(ctx),
				zap.String("provider", "anthropic"),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)...)
		}
		return "", wrapProviderError("generate message", err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	content := builder.String()
	if content == "" {
		return "", errors.New(ErrNoTextInResponse)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response", append(callFields(ctx),
			zap.String("provider", "anthropic"),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", Preview(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)...)
	}
	return content, nil
}

// RegisterAnthropic registers the Anthropic provider with the registry
func RegisterAnthropic(registry *ProviderRegistry) {
	registry.Register("anthropic", func(config map[string]string, logger *zap.Logger, debugMode bool) (TextGenerator, error) {
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic api_key is required")
		}
		return NewAnthropicProvider(apiKey, config["base_url"], config["model"], logger, debugMode), nil
	})
}
