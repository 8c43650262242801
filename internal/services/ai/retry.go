package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the retries and per-attempt time of provider calls
type RetryPolicy struct {
	MaxRetries  int
	MaxDelay    time.Duration
	CallTimeout time.Duration
	Logger      *zap.Logger

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the retries run out
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !IsRetryable(err) || ctx.Err() != nil {
			return err
		}

		delay := GetRetryDelay(err, attempt)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
		if p.Logger != nil {
			p.Logger.Warn("llm_api_retry",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return fmt.Errorf("%w (retry aborted: %v)", err, sleepErr)
		}
	}
}

func (p RetryPolicy) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.CallTimeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
	defer cancel()
	return fn(callCtx)
}

// RetryingEmbedder wraps an Embedder with a RetryPolicy
type RetryingEmbedder struct {
	inner  Embedder
	policy RetryPolicy
}

// NewRetryingEmbedder creates a retrying embedder
func NewRetryingEmbedder(inner Embedder, policy RetryPolicy) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, policy: policy}
}

// Embed implements Embedder
func (e *RetryingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.policy.Do(ctx, "embed", func(ctx context.Context) error {
		var err error
		vec, err = e.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// RetryingGenerator wraps a TextGenerator with a RetryPolicy
type RetryingGenerator struct {
	inner  TextGenerator
	policy RetryPolicy
}

// NewRetryingGenerator creates a retrying generator
func NewRetryingGenerator(inner TextGenerator, policy RetryPolicy) *RetryingGenerator {
	return &RetryingGenerator{inner: inner, policy: policy}
}

// Generate implements TextGenerator
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.policy.Do(ctx, "generate", func(ctx context.Context) error {
		var err error
		out, err = g.inner.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
