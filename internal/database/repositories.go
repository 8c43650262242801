package database

import (
	"context"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user operations used by services and middleware
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	ConsumeGeneration(ctx context.Context, id uuid.UUID) (*models.User, error)
	ReleaseGeneration(ctx context.Context, id uuid.UUID) error
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}

// VoiceProfileRepositoryInterface defines voice profile storage
type VoiceProfileRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error)
	Upsert(ctx context.Context, profile *models.VoiceProfile) error
}

// TemplateRepositoryInterface defines template similarity search
type TemplateRepositoryInterface interface {
	Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.Template, error)
}

// CommunityPostRepositoryInterface defines community post similarity search
type CommunityPostRepositoryInterface interface {
	Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.CommunityPost, error)
}

// UserMemoryRepositoryInterface defines user memory storage and search
type UserMemoryRepositoryInterface interface {
	Create(ctx context.Context, m *models.UserMemory) error
	Match(ctx context.Context, userID uuid.UUID, vec []float32, k int) ([]*models.UserMemory, error)
}

// GeneratedPostRepositoryInterface defines generated post storage
type GeneratedPostRepositoryInterface interface {
	Create(ctx context.Context, post *models.GeneratedPost) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.GeneratedPost, int, error)
	RecordEngagement(ctx context.Context, id, userID uuid.UUID, e models.Engagement) (*models.GeneratedPost, error)
}

// TrendingTopicRepositoryInterface defines trending topic storage
type TrendingTopicRepositoryInterface interface {
	ReplaceAll(ctx context.Context, topics []*models.TrendingTopic) error
	ListActive(ctx context.Context, now time.Time, limit int) ([]*models.TrendingTopic, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface          = (*UserRepository)(nil)
	_ VoiceProfileRepositoryInterface  = (*VoiceProfileRepository)(nil)
	_ TemplateRepositoryInterface      = (*TemplateRepository)(nil)
	_ CommunityPostRepositoryInterface = (*CommunityPostRepository)(nil)
	_ UserMemoryRepositoryInterface    = (*UserMemoryRepository)(nil)
	_ GeneratedPostRepositoryInterface = (*GeneratedPostRepository)(nil)
	_ TrendingTopicRepositoryInterface = (*TrendingTopicRepository)(nil)
)
