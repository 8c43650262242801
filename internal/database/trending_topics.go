package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// TrendingTopicRepository handles the ephemeral trending topic set
type TrendingTopicRepository struct {
	db *DB
}

// NewTrendingTopicRepository creates a new trending topic repository
func NewTrendingTopicRepository(db *DB) *TrendingTopicRepository {
	return &TrendingTopicRepository{db: db}
}

// ReplaceAll swaps the whole topic set in one transaction, so readers see
// either the old set or the new one.
func (r *TrendingTopicRepository) ReplaceAll(ctx context.Context, topics []*models.TrendingTopic) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trending_topics`); err != nil {
			return fmt.Errorf("failed to clear trending topics: %w", err)
		}

		insert := `
			INSERT INTO trending_topics (id, topic, category, suggested_angles, industries, relevance_score, expires_at, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		for _, t := range topics {
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			var embedding interface{}
			if len(t.Embedding) > 0 {
				embedding = pgvector.NewVector(t.Embedding)
			}
			if _, err := tx.ExecContext(ctx, insert,
				t.ID,
				t.Topic,
				t.Category,
				textArray(t.SuggestedAngles),
				textArray(t.Industries),
				t.RelevanceScore,
				t.ExpiresAt,
				embedding,
			); err != nil {
				return fmt.Errorf("failed to insert trending topic %q: %w", t.Topic, err)
			}
		}
		return nil
	})
}

// ListActive returns unexpired topics, most relevant first
func (r *TrendingTopicRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]*models.TrendingTopic, error) {
	query := `
		SELECT id, topic, category, suggested_angles, industries, relevance_score, expires_at, created_at
		FROM trending_topics
		WHERE expires_at > $1
		ORDER BY relevance_score DESC, id ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending topics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	topics := []*models.TrendingTopic{}
	for rows.Next() {
		t := &models.TrendingTopic{}
		var angles, industries pq.StringArray
		if err := rows.Scan(&t.ID, &t.Topic, &t.Category, &angles, &industries, &t.RelevanceScore, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trending topic: %w", err)
		}
		t.SuggestedAngles = []string(angles)
		t.Industries = []string(industries)
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trending topics: %w", err)
	}
	return topics, nil
}
