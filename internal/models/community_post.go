package models

import (
	"time"

	"github.com/google/uuid"
)

// CommunityPost is a shared high-engagement example post
type CommunityPost struct {
	ID                uuid.UUID  `json:"id"`
	ContributedBy     *uuid.UUID `json:"contributed_by,omitempty"`
	Content           string     `json:"content"`
	AnonymizedContent *string    `json:"anonymized_content,omitempty"`
	Likes             int        `json:"likes"`
	Comments          int        `json:"comments"`
	Impressions       int        `json:"impressions"`
	EngagementRate    *float64   `json:"engagement_rate,omitempty"`
	Topic             *string    `json:"topic,omitempty"`
	IsPublic          bool       `json:"is_public"`
	Embedding         []float32  `json:"-"`
	Similarity        float64    `json:"similarity,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ComputeEngagementRate derives (likes+comments)/impressions, or nil without impressions
func ComputeEngagementRate(likes, comments, impressions int) *float64 {
	if impressions <= 0 {
		return nil
	}
	rate := float64(likes+comments) / float64(impressions)
	return &rate
}
