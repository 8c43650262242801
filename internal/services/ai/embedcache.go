package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EmbeddingCache is the byte store behind CachedEmbedder
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder memoizes embeddings by model and input text
type CachedEmbedder struct {
	inner  Embedder
	cache  EmbeddingCache
	model  string
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedEmbedder creates a caching embedder. model must identify the vector space
// so a model change never serves stale vectors.
func NewCachedEmbedder(inner Embedder, cache EmbeddingCache, model string, ttl time.Duration, logger *zap.Logger) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{inner: inner, cache: cache, model: model, ttl: ttl, logger: logger}
}

// EmbeddingCacheKey returns the cache key for a model and input text
func EmbeddingCacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

// Embed implements Embedder. Cache failures are logged and never fail the call.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := EmbeddingCacheKey(c.model, strings.TrimSpace(text))

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("embedding_cache_read_failed", zap.Error(err))
	} else if ok {
		if vec, err := decodeVector(raw); err == nil {
			return vec, nil
		}
		c.logger.Warn("embedding_cache_entry_corrupt", zap.String("key", key))
	}

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.logger.Warn("embedding_cache_write_failed", zap.Error(err))
	}
	return vec, nil
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) ([]float32, error) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector length %d", len(raw))
	}
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}
