package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// CommunityPostRepository handles the shared corpus of high-engagement posts
type CommunityPostRepository struct {
	db *DB
}

// NewCommunityPostRepository creates a new community post repository
func NewCommunityPostRepository(db *DB) *CommunityPostRepository {
	return &CommunityPostRepository{db: db}
}

// Create inserts a community post. The engagement rate is derived from the counts.
func (r *CommunityPostRepository) Create(ctx context.Context, p *models.CommunityPost) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.EngagementRate = models.ComputeEngagementRate(p.Likes, p.Comments, p.Impressions)

	var embedding interface{}
	if len(p.Embedding) > 0 {
		embedding = pgvector.NewVector(p.Embedding)
	}

	query := `
		INSERT INTO community_posts (
			id, contributed_by, content, anonymized_content, likes, comments, impressions,
			engagement_rate, topic, is_public, embedding
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		p.ContributedBy,
		p.Content,
		p.AnonymizedContent,
		p.Likes,
		p.Comments,
		p.Impressions,
		p.EngagementRate,
		p.Topic,
		p.IsPublic,
		embedding,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create community post: %w", err)
	}
	return nil
}

// Match returns up to k public posts whose similarity to vec is at least threshold
func (r *CommunityPostRepository) Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.CommunityPost, error) {
	query := `
		SELECT id, content, likes, comments, impressions, engagement_rate, topic, similarity
		FROM match_community_posts($1, $2, $3)
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vec), threshold, k)
	if err != nil {
		return nil, fmt.Errorf("failed to match community posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []*models.CommunityPost
	for rows.Next() {
		p := &models.CommunityPost{IsPublic: true}
		var rate sql.NullFloat64
		var topic sql.NullString
		if err := rows.Scan(&p.ID, &p.Content, &p.Likes, &p.Comments, &p.Impressions, &rate, &topic, &p.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan community post match: %w", err)
		}
		if rate.Valid {
			v := rate.Float64
			p.EngagementRate = &v
		}
		if topic.Valid {
			v := topic.String
			p.Topic = &v
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate community post matches: %w", err)
	}

	sortBySimilarity(posts,
		func(p *models.CommunityPost) float64 { return p.Similarity },
		func(p *models.CommunityPost) uuid.UUID { return p.ID })
	if len(posts) > k {
		posts = posts[:k]
	}
	return posts, nil
}
