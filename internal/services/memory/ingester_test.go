package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type mockPostRepo struct {
	database.GeneratedPostRepositoryInterface
	GetByIDFunc func(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error)
}

func (m *mockPostRepo) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error) {
	return m.GetByIDFunc(ctx, id, userID)
}

type mockMemoryRepo struct {
	database.UserMemoryRepositoryInterface
	CreateFunc func(ctx context.Context, m *models.UserMemory) error
	created    []*models.UserMemory
}

func (m *mockMemoryRepo) Create(ctx context.Context, mem *models.UserMemory) error {
	m.created = append(m.created, mem)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mem)
	}
	mem.ID = uuid.New()
	return nil
}

type mockEmbedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedFunc(ctx, text)
}

var (
	_ database.GeneratedPostRepositoryInterface = (*mockPostRepo)(nil)
	_ database.UserMemoryRepositoryInterface    = (*mockMemoryRepo)(nil)
	_ ai.Embedder                               = (*mockEmbedder)(nil)
)

func TestIngester_IngestPost(t *testing.T) {
	t.Parallel()

	postID, userID := uuid.New(), uuid.New()
	posts := &mockPostRepo{GetByIDFunc: func(ctx context.Context, id, uid uuid.UUID) (*models.GeneratedPost, error) {
		if id != postID || uid != userID {
			return nil, fmt.Errorf("generated post not found: %w", sql.ErrNoRows)
		}
		return &models.GeneratedPost{ID: id, UserID: uid, GeneratedContent: "Hiring is a team sport."}, nil
	}}
	var embedded string
	emb := &mockEmbedder{EmbedFunc: func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return []float32{0.3, 0.4}, nil
	}}
	memories := &mockMemoryRepo{}

	m, err := NewIngester(posts, memories, emb, zap.NewNop()).IngestPost(context.Background(), postID, userID)
	if err != nil {
		t.Fatalf("IngestPost() error = %v", err)
	}
	if embedded != "Hiring is a team sport." {
		t.Errorf("embedded = %q", embedded)
	}
	if m.ContentType != models.MemoryContentTypePublishedPost || m.UserID != userID || len(m.Embedding) != 2 {
		t.Errorf("memory = %+v", m)
	}
	if len(memories.created) != 1 {
		t.Errorf("created = %d", len(memories.created))
	}
}

func TestIngester_IngestPost_Errors(t *testing.T) {
	t.Parallel()

	found := func(ctx context.Context, id, uid uuid.UUID) (*models.GeneratedPost, error) {
		return &models.GeneratedPost{GeneratedContent: "text"}, nil
	}
	okEmbed := func(ctx context.Context, text string) ([]float32, error) { return []float32{1}, nil }

	tests := []struct {
		name       string
		get        func(ctx context.Context, id, uid uuid.UUID) (*models.GeneratedPost, error)
		embed      func(ctx context.Context, text string) ([]float32, error)
		create     func(ctx context.Context, m *models.UserMemory) error
		wantErrIs  error
		wantStored bool
	}{
		{
			name: "post missing",
			get: func(ctx context.Context, id, uid uuid.UUID) (*models.GeneratedPost, error) {
				return nil, fmt.Errorf("generated post not found: %w", sql.ErrNoRows)
			},
			embed:     okEmbed,
			wantErrIs: sql.ErrNoRows,
		},
		{
			name: "embedding fails",
			get:  found,
			embed: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("rate limited")
			},
		},
		{
			name:       "insert fails",
			get:        found,
			embed:      okEmbed,
			create:     func(ctx context.Context, m *models.UserMemory) error { return errors.New("constraint") },
			wantStored: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			memories := &mockMemoryRepo{CreateFunc: tt.create}
			ing := NewIngester(&mockPostRepo{GetByIDFunc: tt.get}, memories, &mockEmbedder{EmbedFunc: tt.embed}, nil)

			_, err := ing.IngestPost(context.Background(), uuid.New(), uuid.New())
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErrIs != nil && !errors.Is(err, tt.wantErrIs) {
				t.Errorf("error = %v, want %v in chain", err, tt.wantErrIs)
			}
			if (len(memories.created) > 0) != tt.wantStored {
				t.Errorf("created = %d", len(memories.created))
			}
		})
	}
}
