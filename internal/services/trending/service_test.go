package trending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/models"
	"go.uber.org/zap"
)

func TestService_Active_UsesCache(t *testing.T) {
	t.Parallel()

	repo := &mockTopicRepo{stored: []*models.TrendingTopic{{Topic: "AI regulation"}}}
	cache := newMockCache()
	svc := NewService(repo, cache, 5*time.Minute, zap.NewNop())

	for i := 0; i < 3; i++ {
		topics, err := svc.Active(context.Background())
		if err != nil {
			t.Fatalf("Active() error = %v", err)
		}
		if len(topics) != 1 || topics[0].Topic != "AI regulation" {
			t.Errorf("Active() = %+v", topics)
		}
	}
	if repo.listings != 1 {
		t.Errorf("repository listings = %d, want 1", repo.listings)
	}
}

func TestService_Active_CacheErrorFallsThrough(t *testing.T) {
	t.Parallel()

	repo := &mockTopicRepo{stored: []*models.TrendingTopic{}}
	cache := newMockCache()
	cache.getErr = errors.New("connection refused")
	svc := NewService(repo, cache, time.Minute, zap.NewNop())

	topics, err := svc.Active(context.Background())
	if err != nil {
		t.Fatalf("Active() error = %v", err)
	}
	if topics == nil {
		t.Error("Expected empty non-nil list")
	}
}

func TestService_Active_PassesLimitAndNow(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var gotNow time.Time
	var gotLimit int
	repo := &mockTopicRepo{ListActiveFunc: func(ctx context.Context, now time.Time, limit int) ([]*models.TrendingTopic, error) {
		gotNow, gotLimit = now, limit
		return nil, errors.New("relation does not exist")
	}}
	svc := NewService(repo, nil, 0, nil)
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Active(context.Background()); !apperr.Is(err, apperr.KindPersistence) {
		t.Errorf("Active() error = %v, want persistence error", err)
	}
	if !gotNow.Equal(fixed) || gotLimit != ActiveLimit {
		t.Errorf("ListActive(%v, %d)", gotNow, gotLimit)
	}
}
