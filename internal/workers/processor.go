// Package workers processes background jobs consumed from the job queue.
package workers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemoryIngester copies a published post into user memory
type MemoryIngester interface {
	IngestPost(ctx context.Context, postID, userID uuid.UUID) (*models.UserMemory, error)
}

// TrendingRefresher rebuilds the trending topic set
type TrendingRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// JobProcessor dispatches queue jobs to the services that handle them
type JobProcessor struct {
	ingester  MemoryIngester
	refresher TrendingRefresher
	jobQueue  queue.Enqueuer
	logger    *zap.Logger
	now       func() time.Time
}

// NewJobProcessor creates a job processor. jobQueue is used to re-enqueue
// delayed retries and may be nil.
func NewJobProcessor(ingester MemoryIngester, refresher TrendingRefresher, jobQueue queue.Enqueuer, logger *zap.Logger) *JobProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobProcessor{
		ingester:  ingester,
		refresher: refresher,
		jobQueue:  jobQueue,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessJob processes a job based on its type and settles the message
func (p *JobProcessor) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.Job()

	if now := p.now(); !job.Due(now) {
		if job.Expired(now) {
			p.logger.Warn("job_expired", jobFields(job)...)
			if nackErr := msg.Nack(false); nackErr != nil {
				p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
			}
			return nil
		}
		p.logger.Debug("job_not_ready", jobFields(job)...)
		if nackErr := msg.Nack(true); nackErr != nil {
			p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypeMemoryIngest:
		err = p.processMemoryIngest(ctx, job)
	case queue.JobTypeTrendingRefresh:
		err = p.processTrendingRefresh(ctx)
	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		return p.handleJobError(ctx, msg, job, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	p.logger.Info("job_completed", jobFields(job)...)
	return nil
}

func (p *JobProcessor) processMemoryIngest(ctx context.Context, job *queue.Job) error {
	if job.PostID == nil {
		return errMissingPostID
	}
	_, err := p.ingester.IngestPost(ctx, *job.PostID, job.UserID)
	return err
}

func (p *JobProcessor) processTrendingRefresh(ctx context.Context) error {
	n, err := p.refresher.Refresh(ctx)
	if err != nil {
		return err
	}
	p.logger.Info("trending_refresh_job_completed", zap.Int("topics_inserted", n))
	return nil
}

var errMissingPostID = errors.New("memory ingest job has no post id")

// handleJobError decides between dropping, delaying, retrying, and dead-lettering a failed job
func (p *JobProcessor) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	fields := append(jobFields(job), zap.Error(err))

	// Jobs that can never succeed go to the DLQ without retries
	if errors.Is(err, errMissingPostID) {
		p.logger.Error("job_invalid", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
		}
		return fmt.Errorf("invalid job: %w", err)
	}

	// The post was deleted or belongs to someone else; nothing to ingest
	if errors.Is(err, sql.ErrNoRows) {
		p.logger.Warn("job_target_missing", fields...)
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil
	}

	// Provider limits wait out the provider's delay but still count against MaxRetries
	if (ai.IsQuotaError(err) || ai.IsRateLimitError(err)) && job.CanRetry() {
		delay := ai.GetRetryDelay(err, job.RetryCount)
		p.logger.Warn("job_provider_limited", append(fields, zap.Duration("retry_in", delay))...)
		reErr := p.requeueDelayed(ctx, msg, job, delay)
		if reErr == nil {
			return nil
		}
		p.logger.Error("job_reenqueue_failed", append(jobFields(job), zap.Error(reErr))...)
	}

	if job.CanRetry() {
		delay := ai.GetRetryDelay(err, job.RetryCount)
		p.logger.Warn("job_failed_will_retry", append(fields,
			zap.Int("attempt", job.RetryCount+1),
			zap.Int("max_retries", job.MaxRetries),
		)...)
		if reErr := p.requeueDelayed(ctx, msg, job, delay); reErr != nil {
			// Redeliver as-is; the retry count is not advanced
			if nackErr := msg.Nack(true); nackErr != nil {
				p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
			}
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	p.logger.Error("job_dead_lettered", fields...)
	if nackErr := msg.Nack(false); nackErr != nil {
		p.logger.Error("job_nack_failed", append(jobFields(job), zap.Error(nackErr))...)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// requeueDelayed publishes a copy of job with an advanced retry count and acks the original
func (p *JobProcessor) requeueDelayed(ctx context.Context, msg queue.Delivery, job *queue.Job, delay time.Duration) error {
	if p.jobQueue == nil {
		return errors.New("no queue configured for delayed retry")
	}

	retry := job.Retry(p.now(), delay)
	if err := p.jobQueue.Enqueue(ctx, retry); err != nil {
		return err
	}
	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Warn("job_ack_after_requeue_failed", append(jobFields(job), zap.Error(ackErr))...)
	}
	p.logger.Info("job_requeued",
		zap.String("job_id", job.ID.String()),
		zap.Time("not_before", *retry.NotBefore),
		zap.Int("retry_count", retry.RetryCount),
	)
	return nil
}

func jobFields(job *queue.Job) []zap.Field {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	}
	if job.UserID != uuid.Nil {
		fields = append(fields, zap.String("user_id", job.UserID.String()))
	}
	if job.PostID != nil {
		fields = append(fields, zap.String("post_id", job.PostID.String()))
	}
	return fields
}
