package database

import (
	"context"
	"fmt"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// UserMemoryRepository handles per-user content memory. Rows are append-only.
type UserMemoryRepository struct {
	db *DB
}

// NewUserMemoryRepository creates a new user memory repository
func NewUserMemoryRepository(db *DB) *UserMemoryRepository {
	return &UserMemoryRepository{db: db}
}

// Create appends a memory fragment for a user
func (r *UserMemoryRepository) Create(ctx context.Context, m *models.UserMemory) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if len(m.Embedding) == 0 {
		return fmt.Errorf("user memory requires an embedding")
	}

	query := `
		INSERT INTO user_memory (id, user_id, content, content_type, key_insights, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.ID,
		m.UserID,
		m.Content,
		m.ContentType,
		textArray(m.KeyInsights),
		pgvector.NewVector(m.Embedding),
	).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user memory: %w", err)
	}
	return nil
}

// Match returns the user's k most similar memory fragments; no threshold applies
func (r *UserMemoryRepository) Match(ctx context.Context, userID uuid.UUID, vec []float32, k int) ([]*models.UserMemory, error) {
	query := `
		SELECT id, content, content_type, similarity
		FROM match_user_memory($1, $2, $3)
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vec), userID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to match user memory: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []*models.UserMemory
	for rows.Next() {
		m := &models.UserMemory{UserID: userID}
		if err := rows.Scan(&m.ID, &m.Content, &m.ContentType, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan user memory match: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user memory matches: %w", err)
	}

	sortBySimilarity(memories,
		func(m *models.UserMemory) float64 { return m.Similarity },
		func(m *models.UserMemory) uuid.UUID { return m.ID })
	if len(memories) > k {
		memories = memories[:k]
	}
	return memories, nil
}
