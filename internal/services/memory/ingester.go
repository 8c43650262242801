// Package memory adds published posts to a user's retrievable content history.
package memory

import (
	"context"
	"fmt"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ingester embeds generated posts the user reported as published and stores
// them as user memory.
type Ingester struct {
	posts    database.GeneratedPostRepositoryInterface
	memories database.UserMemoryRepositoryInterface
	embedder ai.Embedder
	logger   *zap.Logger
}

// NewIngester creates a memory ingester
func NewIngester(posts database.GeneratedPostRepositoryInterface, memories database.UserMemoryRepositoryInterface, embedder ai.Embedder, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{posts: posts, memories: memories, embedder: embedder, logger: logger}
}

// IngestPost appends the post's content to the owner's memory
func (i *Ingester) IngestPost(ctx context.Context, postID, userID uuid.UUID) (*models.UserMemory, error) {
	post, err := i.posts.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load generated post: %w", err)
	}

	vec, err := i.embedder.Embed(ai.WithUserID(ctx, userID.String()), post.GeneratedContent)
	if err != nil {
		return nil, fmt.Errorf("failed to embed post content: %w", err)
	}

	m := &models.UserMemory{
		UserID:      userID,
		Content:     post.GeneratedContent,
		ContentType: models.MemoryContentTypePublishedPost,
		KeyInsights: []string{},
		Embedding:   vec,
	}
	if err := i.memories.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store user memory: %w", err)
	}

	i.logger.Info("user_memory_ingested",
		zap.String("user_id", userID.String()),
		zap.String("post_id", postID.String()),
		zap.String("memory_id", m.ID.String()),
	)
	return m, nil
}
