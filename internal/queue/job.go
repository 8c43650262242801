package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType selects the worker handler and the routing key of a job
type JobType string

const (
	// JobTypeMemoryIngest embeds a posted generation into the author's memory
	JobTypeMemoryIngest JobType = "memory_ingest"
	// JobTypeTrendingRefresh rebuilds the trending topic set from news feeds
	JobTypeTrendingRefresh JobType = "trending_refresh"
)

// DefaultMaxRetries is how many times a failing job is retried before dead-lettering
const DefaultMaxRetries = 3

// memoryIngestTTL bounds how long an ingest job stays useful. Engagement
// recorded a day ago has already been superseded by newer feedback.
const memoryIngestTTL = 24 * time.Hour

// Job is the JSON body of a queue message
type Job struct {
	ID     uuid.UUID  `json:"id"`
	Type   JobType    `json:"type"`
	UserID uuid.UUID  `json:"user_id"`
	PostID *uuid.UUID `json:"post_id,omitempty"`
	// NotBefore delays delivery; NotAfter drops the job once passed
	NotBefore  *time.Time `json:"not_before,omitempty"`
	NotAfter   *time.Time `json:"not_after,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewMemoryIngestJob asks the worker to copy a posted generation into the
// author's memory
func NewMemoryIngestJob(userID, postID uuid.UUID) *Job {
	job := NewJob(JobTypeMemoryIngest, userID)
	job.PostID = &postID
	notAfter := job.CreatedAt.Add(memoryIngestTTL)
	job.NotAfter = &notAfter
	return job
}

// NewTrendingRefreshJob is enqueued by `postcraft-configure trending refresh --async`
func NewTrendingRefreshJob() *Job {
	return NewJob(JobTypeTrendingRefresh, uuid.Nil)
}

// RoutingKey routes the job on the topic exchange
func (j *Job) RoutingKey() string {
	return routingKeyPrefix + string(j.Type)
}

func (j *Job) Expired(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// Due reports whether the job may run at now
func (j *Job) Due(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.Expired(now)
}

func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Retry returns a copy of the job for the next attempt, due after delay. The
// ID is kept so every attempt of one job logs under the same job_id.
func (j *Job) Retry(now time.Time, delay time.Duration) *Job {
	next := *j
	notBefore := now.Add(delay)
	next.NotBefore = &notBefore
	next.RetryCount = j.RetryCount + 1
	return &next
}
