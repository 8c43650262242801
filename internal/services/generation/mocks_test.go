package generation

import (
	"context"
	"sync"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
)

type mockUserRepo struct {
	ConsumeGenerationFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)
	ReleaseGenerationFunc func(ctx context.Context, id uuid.UUID) error

	mu       sync.Mutex
	released int
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) ConsumeGeneration(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.ConsumeGenerationFunc != nil {
		return m.ConsumeGenerationFunc(ctx, id)
	}
	return &models.User{ID: id, PostsGeneratedThisMonth: 1, PostsLimit: 5}, nil
}
func (m *mockUserRepo) ReleaseGeneration(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
	if m.ReleaseGenerationFunc != nil {
		return m.ReleaseGenerationFunc(ctx, id)
	}
	return nil
}
func (m *mockUserRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	return nil
}

type mockVoiceRepo struct {
	GetByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error)
}

func (m *mockVoiceRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error) {
	return m.GetByUserIDFunc(ctx, userID)
}
func (m *mockVoiceRepo) Upsert(ctx context.Context, profile *models.VoiceProfile) error { return nil }

type mockTemplateRepo struct {
	MatchFunc func(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.Template, error)
}

func (m *mockTemplateRepo) Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.Template, error) {
	return m.MatchFunc(ctx, vec, threshold, k)
}

type mockCommunityRepo struct {
	MatchFunc func(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.CommunityPost, error)
}

func (m *mockCommunityRepo) Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.CommunityPost, error) {
	return m.MatchFunc(ctx, vec, threshold, k)
}

type mockMemoryRepo struct {
	MatchFunc func(ctx context.Context, userID uuid.UUID, vec []float32, k int) ([]*models.UserMemory, error)
}

func (m *mockMemoryRepo) Create(ctx context.Context, mem *models.UserMemory) error { return nil }
func (m *mockMemoryRepo) Match(ctx context.Context, userID uuid.UUID, vec []float32, k int) ([]*models.UserMemory, error) {
	return m.MatchFunc(ctx, userID, vec, k)
}

type mockPostRepo struct {
	CreateFunc func(ctx context.Context, post *models.GeneratedPost) error

	mu      sync.Mutex
	created []*models.GeneratedPost
}

func (m *mockPostRepo) Create(ctx context.Context, post *models.GeneratedPost) error {
	m.mu.Lock()
	m.created = append(m.created, post)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	post.ID = uuid.New()
	return nil
}
func (m *mockPostRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error) {
	return nil, nil
}
func (m *mockPostRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.GeneratedPost, int, error) {
	return nil, 0, nil
}
func (m *mockPostRepo) RecordEngagement(ctx context.Context, id, userID uuid.UUID, e models.Engagement) (*models.GeneratedPost, error) {
	return nil, nil
}

type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)

	mu    sync.Mutex
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type mockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu    sync.Mutex
	calls int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.GenerateFunc(ctx, prompt)
}

var (
	_ database.UserRepositoryInterface          = (*mockUserRepo)(nil)
	_ database.VoiceProfileRepositoryInterface  = (*mockVoiceRepo)(nil)
	_ database.TemplateRepositoryInterface      = (*mockTemplateRepo)(nil)
	_ database.CommunityPostRepositoryInterface = (*mockCommunityRepo)(nil)
	_ database.UserMemoryRepositoryInterface    = (*mockMemoryRepo)(nil)
	_ database.GeneratedPostRepositoryInterface = (*mockPostRepo)(nil)
	_ ai.Embedder                               = (*mockEmbedder)(nil)
	_ ai.TextGenerator                          = (*mockGenerator)(nil)
)
