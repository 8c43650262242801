package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier is the billing plan a user is on
type SubscriptionTier string

const (
	SubscriptionTierFree SubscriptionTier = "free"
	SubscriptionTierPro  SubscriptionTier = "pro"
)

// User represents an account in the system
type User struct {
	ID                      uuid.UUID        `json:"id"`
	Email                   string           `json:"email"`
	ProviderID              *string          `json:"-"`
	FullName                *string          `json:"full_name,omitempty"`
	Niche                   *string          `json:"niche,omitempty"`
	SubscriptionTier        SubscriptionTier `json:"subscription_tier"`
	PostsGeneratedThisMonth int              `json:"posts_generated_this_month"`
	PostsLimit              int              `json:"posts_limit"`
	StripeCustomerID        *string          `json:"-"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// HasQuotaRemaining reports whether the user can generate another post this cycle
func (u *User) HasQuotaRemaining() bool {
	return u.PostsGeneratedThisMonth < u.PostsLimit
}

// RemainingPosts returns how many generations are left this cycle
func (u *User) RemainingPosts() int {
	if u.PostsGeneratedThisMonth >= u.PostsLimit {
		return 0
	}
	return u.PostsLimit - u.PostsGeneratedThisMonth
}
