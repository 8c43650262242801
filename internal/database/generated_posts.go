package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const generatedPostColumns = `id, user_id, input_topic, input_context, generated_content, variation_type,
	templates_used, was_posted, actual_likes, actual_comments, actual_impressions, user_rating, created_at`

// GeneratedPostRepository handles generated post persistence
type GeneratedPostRepository struct {
	db *DB
}

// NewGeneratedPostRepository creates a new generated post repository
func NewGeneratedPostRepository(db *DB) *GeneratedPostRepository {
	return &GeneratedPostRepository{db: db}
}

func scanGeneratedPost(row rowScanner) (*models.GeneratedPost, error) {
	post := &models.GeneratedPost{}
	var (
		templateIDs                              pq.StringArray
		likes, comments, impressions, userRating sql.NullInt64
	)
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.InputTopic,
		&post.InputContext,
		&post.GeneratedContent,
		&post.VariationType,
		&templateIDs,
		&post.WasPosted,
		&likes,
		&comments,
		&impressions,
		&userRating,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.TemplatesUsed = make([]uuid.UUID, 0, len(templateIDs))
	for _, raw := range templateIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid template id %q: %w", raw, err)
		}
		post.TemplatesUsed = append(post.TemplatesUsed, id)
	}
	post.ActualLikes = nullIntPtr(likes)
	post.ActualComments = nullIntPtr(comments)
	post.ActualImpressions = nullIntPtr(impressions)
	post.UserRating = nullIntPtr(userRating)
	return post, nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

// Create persists a generated post
func (r *GeneratedPostRepository) Create(ctx context.Context, post *models.GeneratedPost) error {
	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	templateIDs := make([]string, 0, len(post.TemplatesUsed))
	for _, id := range post.TemplatesUsed {
		templateIDs = append(templateIDs, id.String())
	}

	query := `
		INSERT INTO generated_posts (id, user_id, input_topic, input_context, generated_content, variation_type, templates_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		post.ID,
		post.UserID,
		post.InputTopic,
		post.InputContext,
		post.GeneratedContent,
		post.VariationType,
		textArray(templateIDs),
	).Scan(&post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create generated post: %w", err)
	}
	return nil
}

// GetByID returns a post owned by userID
func (r *GeneratedPostRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.GeneratedPost, error) {
	query := `SELECT ` + generatedPostColumns + ` FROM generated_posts WHERE id = $1 AND user_id = $2`
	post, err := scanGeneratedPost(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generated post not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generated post: %w", err)
	}
	return post, nil
}

// ListByUser returns one page of the user's posts, newest first, plus the total count
func (r *GeneratedPostRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]*models.GeneratedPost, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_posts WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count generated posts: %w", err)
	}

	query := `SELECT ` + generatedPostColumns + `
		FROM generated_posts
		WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list generated posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []*models.GeneratedPost{}
	for rows.Next() {
		post, err := scanGeneratedPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan generated post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate generated posts: %w", err)
	}
	return posts, total, nil
}

// RecordEngagement marks a post as published and stores its real-world metrics
func (r *GeneratedPostRepository) RecordEngagement(ctx context.Context, id, userID uuid.UUID, e models.Engagement) (*models.GeneratedPost, error) {
	query := `
		UPDATE generated_posts
		SET was_posted = TRUE, actual_likes = $3, actual_comments = $4, actual_impressions = $5, user_rating = $6
		WHERE id = $1 AND user_id = $2
		RETURNING ` + generatedPostColumns

	post, err := scanGeneratedPost(r.db.QueryRowContext(ctx, query,
		id, userID, e.ActualLikes, e.ActualComments, e.ActualImpressions, e.UserRating))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("generated post not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record engagement: %w", err)
	}
	return post, nil
}
