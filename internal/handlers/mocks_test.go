package handlers

import (
	"context"
	"errors"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/generation"
	"github.com/google/uuid"
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, req generation.Request) (*generation.Result, error)
	lastReq      generation.Request
}

func (m *mockGenerator) Generate(ctx context.Context, req generation.Request) (*generation.Result, error) {
	m.lastReq = req
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &generation.Result{TemplatesUsed: []models.TemplateRef{}}, nil
}

type mockVoiceAnalyzer struct {
	getFunc     func(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error)
	analyzeFunc func(ctx context.Context, userID uuid.UUID, samples []string) (*models.VoiceProfile, error)
}

func (m *mockVoiceAnalyzer) Get(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockVoiceAnalyzer) Analyze(ctx context.Context, userID uuid.UUID, samples []string) (*models.VoiceProfile, error) {
	if m.analyzeFunc != nil {
		return m.analyzeFunc(ctx, userID, samples)
	}
	return nil, errors.New("not implemented")
}

type mockPostRepo struct {
	getByIDFunc          func(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error)
	listByUserFunc       func(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.GeneratedPost, int, error)
	recordEngagementFunc func(ctx context.Context, id, userID uuid.UUID, e models.Engagement) (*models.GeneratedPost, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.GeneratedPost) error {
	return errors.New("not implemented")
}

func (m *mockPostRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.GeneratedPost, int, error) {
	if m.listByUserFunc != nil {
		return m.listByUserFunc(ctx, userID, page, pageSize)
	}
	return nil, 0, nil
}

func (m *mockPostRepo) RecordEngagement(ctx context.Context, id, userID uuid.UUID, e models.Engagement) (*models.GeneratedPost, error) {
	if m.recordEngagementFunc != nil {
		return m.recordEngagementFunc(ctx, id, userID, e)
	}
	return nil, errors.New("not implemented")
}

type mockEnqueuer struct {
	enqueueErr error
	jobs       []*queue.Job
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type mockTopicLister struct {
	activeFunc func(ctx context.Context) ([]*models.TrendingTopic, error)
}

func (m *mockTopicLister) Active(ctx context.Context) ([]*models.TrendingTopic, error) {
	if m.activeFunc != nil {
		return m.activeFunc(ctx)
	}
	return nil, nil
}

type mockTopicRefresher struct {
	refreshFunc func(ctx context.Context) (int, error)
}

func (m *mockTopicRefresher) Refresh(ctx context.Context) (int, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return 0, nil
}

type mockCheckout struct {
	checkoutFunc func(ctx context.Context, user *models.User) (string, error)
}

func (m *mockCheckout) Checkout(ctx context.Context, user *models.User) (string, error) {
	if m.checkoutFunc != nil {
		return m.checkoutFunc(ctx, user)
	}
	return "", errors.New("not implemented")
}

var (
	_ PostGenerator                             = (*mockGenerator)(nil)
	_ VoiceAnalyzer                             = (*mockVoiceAnalyzer)(nil)
	_ database.GeneratedPostRepositoryInterface = (*mockPostRepo)(nil)
	_ queue.Enqueuer                            = (*mockEnqueuer)(nil)
	_ TopicLister                               = (*mockTopicLister)(nil)
	_ TopicRefresher                            = (*mockTopicRefresher)(nil)
	_ CheckoutStarter                           = (*mockCheckout)(nil)
)
