package trending

import (
	"context"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"go.uber.org/zap"
)

// Service serves the active trending topics through a short-lived cache
type Service struct {
	topics database.TrendingTopicRepositoryInterface
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a trending topic reader. cache may be nil.
func NewService(topics database.TrendingTopicRepositoryInterface, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{topics: topics, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Active returns unexpired topics ordered by relevance
func (s *Service) Active(ctx context.Context) ([]*models.TrendingTopic, error) {
	if s.cache != nil {
		var cached []*models.TrendingTopic
		ok, err := s.cache.GetJSON(ctx, ActiveCacheKey, &cached)
		if err != nil {
			s.logger.Warn("trending_cache_read_failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	topics, err := s.topics.ListActive(ctx, s.now().UTC(), ActiveLimit)
	if err != nil {
		return nil, apperr.Persistence("Failed to load trending topics", err)
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, ActiveCacheKey, topics, s.ttl); err != nil {
			s.logger.Warn("trending_cache_write_failed", zap.Error(err))
		}
	}
	return topics, nil
}
