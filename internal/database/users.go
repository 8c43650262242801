package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
)

// ErrQuotaExhausted is returned when a user has no generations left this cycle
var ErrQuotaExhausted = errors.New("monthly generation quota exhausted")

const userColumns = `id, email, provider_id, full_name, niche, subscription_tier,
	posts_generated_this_month, posts_limit, stripe_customer_id, created_at, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.ProviderID,
		&user.FullName,
		&user.Niche,
		&user.SubscriptionTier,
		&user.PostsGeneratedThisMonth,
		&user.PostsLimit,
		&user.StripeCustomerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user; ID, tier and limit must already be set
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, provider_id, full_name, subscription_tier, posts_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING posts_generated_this_month, created_at, updated_at
	`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.ProviderID,
		user.FullName,
		user.SubscriptionTier,
		user.PostsLimit,
		now,
	).Scan(&user.PostsGeneratedThisMonth, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByProviderID retrieves a user by the identity provider subject
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE provider_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, providerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by provider ID: %w", err)
	}
	return user, nil
}

// ConsumeGeneration reserves one generation for the user in a single conditional update.
// It returns ErrQuotaExhausted when the user is at their limit and a wrapped
// sql.ErrNoRows when the user does not exist.
func (r *UserRepository) ConsumeGeneration(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
		UPDATE users
		SET posts_generated_this_month = posts_generated_this_month + 1, updated_at = NOW()
		WHERE id = $1 AND posts_generated_this_month < posts_limit
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to reserve generation: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return nil, ErrQuotaExhausted
}

// ReleaseGeneration gives back a reservation taken by ConsumeGeneration
func (r *UserRepository) ReleaseGeneration(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET posts_generated_this_month = GREATEST(posts_generated_this_month - 1, 0), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to release generation: %w", err)
	}
	return nil
}

// SetStripeCustomerID records the billing customer created for the user
func (r *UserRepository) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	query := `UPDATE users SET stripe_customer_id = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, customerID)
	if err != nil {
		return fmt.Errorf("failed to set stripe customer: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %w", sql.ErrNoRows)
	}
	return nil
}

// ResetMonthlyUsage zeroes every user's generation counter and returns how many rows changed
func (r *UserRepository) ResetMonthlyUsage(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET posts_generated_this_month = 0, updated_at = NOW() WHERE posts_generated_this_month <> 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset monthly usage: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// SetPlan changes a user's subscription tier and monthly limit
func (r *UserRepository) SetPlan(ctx context.Context, email string, tier models.SubscriptionTier, limit int) (*models.User, error) {
	query := `
		UPDATE users
		SET subscription_tier = $2, posts_limit = $3, updated_at = NOW()
		WHERE email = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, tier, limit))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set plan: %w", err)
	}
	return user, nil
}
