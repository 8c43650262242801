package trending

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"go.uber.org/zap"
)

const (
	// ActiveCacheKey is the cache key of the active topic list
	ActiveCacheKey = "trending:active"
	// ActiveLimit caps the active topic list
	ActiveLimit = 10
)

// HeadlineSource supplies news headlines
type HeadlineSource interface {
	Headlines(ctx context.Context) []string
}

// Cache is the subset of the Redis cache used for the active topic list
type Cache interface {
	GetJSON(ctx context.Context, key string, v interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Refresher rebuilds the trending topic set from news headlines
type Refresher struct {
	source    HeadlineSource
	generator ai.TextGenerator
	embedder  ai.Embedder
	topics    database.TrendingTopicRepositoryInterface
	cache     Cache
	logger    *zap.Logger
	now       func() time.Time
	random    func() float64
}

// NewRefresher creates a refresher. cache may be nil.
func NewRefresher(source HeadlineSource, generator ai.TextGenerator, embedder ai.Embedder, topics database.TrendingTopicRepositoryInterface, cache Cache, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		source:    source,
		generator: generator,
		embedder:  embedder,
		topics:    topics,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
		random:    rand.Float64,
	}
}

// Refresh fetches headlines, extracts topics and atomically replaces the stored
// set. It returns the number of topics inserted.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	start := r.now()

	headlines := r.source.Headlines(ctx)
	if len(headlines) == 0 {
		return 0, apperr.Upstream("No headlines fetched", nil)
	}

	raw, err := r.generator.Generate(ctx, BuildExtractionPrompt(headlines))
	if err != nil {
		return 0, apperr.Upstream("Failed to update trending topics", err)
	}
	extracted, err := ParseTopics(raw)
	if err != nil {
		return 0, err
	}
	// The stored set is only replaced by a non-empty one
	if len(extracted) == 0 {
		return 0, apperr.Parse("No trending topics extracted", errors.New("model returned no usable topics"))
	}

	expiresAt := r.now().Add(models.TrendingTopicTTL).UTC()
	rows := make([]*models.TrendingTopic, 0, len(extracted))
	for _, t := range extracted {
		vec, err := r.embedder.Embed(ctx, t.EmbeddingText())
		if err != nil {
			return 0, apperr.Upstream("Failed to update trending topics", fmt.Errorf("embed topic %q: %w", t.Topic, err))
		}
		rows = append(rows, &models.TrendingTopic{
			Topic:           t.Topic,
			Category:        t.Category,
			SuggestedAngles: t.SuggestedAngles,
			Industries:      t.Industries,
			RelevanceScore:  0.8 + r.random()*0.2,
			ExpiresAt:       expiresAt,
			Embedding:       vec,
		})
	}

	if err := r.topics.ReplaceAll(ctx, rows); err != nil {
		return 0, apperr.Persistence("Failed to update trending topics", err)
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, ActiveCacheKey); err != nil {
			r.logger.Warn("trending_cache_invalidate_failed", zap.Error(err))
		}
	}

	r.logger.Info("trending_topics_refreshed",
		zap.Int("headlines", len(headlines)),
		zap.Int("topics_inserted", len(rows)),
		zap.Duration("duration", r.now().Sub(start)),
	)
	return len(rows), nil
}
