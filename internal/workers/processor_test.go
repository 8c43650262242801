package workers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
)

type mockIngester struct {
	ingestFunc func(ctx context.Context, postID, userID uuid.UUID) (*models.UserMemory, error)
	calls      int
}

func (m *mockIngester) IngestPost(ctx context.Context, postID, userID uuid.UUID) (*models.UserMemory, error) {
	m.calls++
	if m.ingestFunc != nil {
		return m.ingestFunc(ctx, postID, userID)
	}
	return &models.UserMemory{ID: uuid.New(), UserID: userID}, nil
}

type mockRefresher struct {
	refreshFunc func(ctx context.Context) (int, error)
	calls       int
}

func (m *mockRefresher) Refresh(ctx context.Context) (int, error) {
	m.calls++
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx)
	}
	return 4, nil
}

type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	enqueued    []*queue.Job
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

// mockMessage records how a delivery was settled
type mockMessage struct {
	job     *queue.Job
	acked   bool
	nacked  bool
	requeue bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeue = requeue
	return nil
}

func (m *mockMessage) Job() *queue.Job {
	return m.job
}

var (
	_ MemoryIngester    = (*mockIngester)(nil)
	_ TrendingRefresher = (*mockRefresher)(nil)
	_ queue.Enqueuer    = (*mockJobQueue)(nil)
	_ queue.Delivery    = (*mockMessage)(nil)
)

func rateLimitErr() error {
	return &ai.APIError{Provider: "openai", StatusCode: http.StatusTooManyRequests, Message: "slow down"}
}

func TestJobProcessor_ProcessJob(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	postID := uuid.New()
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		job           func() *queue.Job
		ingestErr     error
		refreshErr    error
		enqueueErr    error
		wantErr       bool
		wantAcked     bool
		wantNacked    bool
		wantRequeue   bool
		wantEnqueued  int
		wantIngests   int
		wantRefreshes int
	}{
		{
			name:        "memory ingest succeeds",
			job:         func() *queue.Job { return queue.NewMemoryIngestJob(userID, postID) },
			wantAcked:   true,
			wantIngests: 1,
		},
		{
			name:          "trending refresh succeeds",
			job:           queue.NewTrendingRefreshJob,
			wantAcked:     true,
			wantRefreshes: 1,
		},
		{
			name: "memory ingest without post id is dead-lettered",
			job: func() *queue.Job {
				return queue.NewJob(queue.JobTypeMemoryIngest, userID)
			},
			wantErr:    true,
			wantNacked: true,
		},
		{
			name:        "missing post is acked and dropped",
			job:         func() *queue.Job { return queue.NewMemoryIngestJob(userID, postID) },
			ingestErr:   fmt.Errorf("failed to load generated post: %w", sql.ErrNoRows),
			wantAcked:   true,
			wantIngests: 1,
		},
		{
			name:         "rate limited job is re-enqueued with delay",
			job:          func() *queue.Job { return queue.NewMemoryIngestJob(userID, postID) },
			ingestErr:    fmt.Errorf("failed to embed post content: %w", rateLimitErr()),
			wantAcked:    true,
			wantEnqueued: 1,
			wantIngests:  1,
		},
		{
			name:          "generic failure is retried through the queue",
			job:           queue.NewTrendingRefreshJob,
			refreshErr:    errors.New("db down"),
			wantErr:       true,
			wantAcked:     true,
			wantEnqueued:  1,
			wantRefreshes: 1,
		},
		{
			name:          "failed re-enqueue falls back to requeue",
			job:           queue.NewTrendingRefreshJob,
			refreshErr:    errors.New("db down"),
			enqueueErr:    errors.New("broker gone"),
			wantErr:       true,
			wantNacked:    true,
			wantRequeue:   true,
			wantRefreshes: 1,
		},
		{
			name: "exhausted retries go to the DLQ",
			job: func() *queue.Job {
				job := queue.NewTrendingRefreshJob()
				job.RetryCount = job.MaxRetries
				return job
			},
			refreshErr:    errors.New("db down"),
			wantErr:       true,
			wantNacked:    true,
			wantRefreshes: 1,
		},
		{
			name: "unknown job type",
			job: func() *queue.Job {
				return queue.NewJob(queue.JobType("unknown"), userID)
			},
			wantErr:    true,
			wantNacked: true,
		},
		{
			name: "job not ready yet is requeued",
			job: func() *queue.Job {
				job := queue.NewTrendingRefreshJob()
				job.NotBefore = timePtr(fixedNow.Add(time.Hour))
				return job
			},
			wantNacked:  true,
			wantRequeue: true,
		},
		{
			name: "expired job is dropped",
			job: func() *queue.Job {
				job := queue.NewTrendingRefreshJob()
				job.NotAfter = timePtr(fixedNow.Add(-time.Hour))
				return job
			},
			wantNacked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ingester := &mockIngester{ingestFunc: func(_ context.Context, _, uid uuid.UUID) (*models.UserMemory, error) {
				if tt.ingestErr != nil {
					return nil, tt.ingestErr
				}
				return &models.UserMemory{ID: uuid.New(), UserID: uid}, nil
			}}
			refresher := &mockRefresher{refreshFunc: func(context.Context) (int, error) {
				if tt.refreshErr != nil {
					return 0, tt.refreshErr
				}
				return 7, nil
			}}
			jobQueue := &mockJobQueue{enqueueFunc: func(context.Context, *queue.Job) error { return tt.enqueueErr }}

			processor := NewJobProcessor(ingester, refresher, jobQueue, nil)
			processor.now = func() time.Time { return fixedNow }

			job := tt.job()
			msg := &mockMessage{job: job}
			err := processor.ProcessJob(context.Background(), msg)

			if (err != nil) != tt.wantErr {
				t.Fatalf("ProcessJob() error = %v, wantErr %v", err, tt.wantErr)
			}
			if msg.acked != tt.wantAcked {
				t.Errorf("acked = %v, want %v", msg.acked, tt.wantAcked)
			}
			if msg.nacked != tt.wantNacked {
				t.Errorf("nacked = %v, want %v", msg.nacked, tt.wantNacked)
			}
			if msg.nacked && msg.requeue != tt.wantRequeue {
				t.Errorf("requeue = %v, want %v", msg.requeue, tt.wantRequeue)
			}
			if len(jobQueue.enqueued) != tt.wantEnqueued {
				t.Errorf("enqueued = %d, want %d", len(jobQueue.enqueued), tt.wantEnqueued)
			}
			if ingester.calls != tt.wantIngests {
				t.Errorf("ingest calls = %d, want %d", ingester.calls, tt.wantIngests)
			}
			if refresher.calls != tt.wantRefreshes {
				t.Errorf("refresh calls = %d, want %d", refresher.calls, tt.wantRefreshes)
			}

			if tt.wantEnqueued > 0 {
				retry := jobQueue.enqueued[0]
				if retry.ID != job.ID {
					t.Errorf("retry job ID = %s, want %s", retry.ID, job.ID)
				}
				if retry.RetryCount != job.RetryCount+1 {
					t.Errorf("retry count = %d, want %d", retry.RetryCount, job.RetryCount+1)
				}
				if retry.NotBefore == nil || !retry.NotBefore.After(fixedNow) {
					t.Errorf("retry NotBefore = %v, want after %v", retry.NotBefore, fixedNow)
				}
			}
		})
	}
}

func TestJobProcessor_QuotaErrorsReachDLQ(t *testing.T) {
	t.Parallel()

	quotaErr := &ai.APIError{Provider: "openai", Code: "insufficient_quota", IsPermanent: true, Message: "quota"}
	refresher := &mockRefresher{refreshFunc: func(context.Context) (int, error) { return 0, quotaErr }}
	jobQueue := &mockJobQueue{}
	processor := NewJobProcessor(&mockIngester{}, refresher, jobQueue, nil)

	job := queue.NewTrendingRefreshJob()
	var last *mockMessage
	for range 10 {
		last = &mockMessage{job: job}
		_ = processor.ProcessJob(context.Background(), last)
		if !last.acked {
			break
		}
		job = jobQueue.enqueued[len(jobQueue.enqueued)-1]
		// Redeliver immediately regardless of the delay
		job.NotBefore = nil
	}

	if len(jobQueue.enqueued) != queue.DefaultMaxRetries {
		t.Errorf("requeued %d times, want %d", len(jobQueue.enqueued), queue.DefaultMaxRetries)
	}
	if !last.nacked || last.requeue {
		t.Errorf("final delivery nacked = %v requeue = %v, want dead-lettered", last.nacked, last.requeue)
	}
	if job.RetryCount != job.MaxRetries {
		t.Errorf("retry count = %d, want %d", job.RetryCount, job.MaxRetries)
	}
}

func TestJobProcessor_NoQueueFallsBackToNack(t *testing.T) {
	t.Parallel()

	refresher := &mockRefresher{refreshFunc: func(context.Context) (int, error) { return 0, errors.New("boom") }}
	processor := NewJobProcessor(&mockIngester{}, refresher, nil, nil)

	msg := &mockMessage{job: queue.NewTrendingRefreshJob()}
	if err := processor.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if !msg.nacked || !msg.requeue {
		t.Errorf("nacked = %v requeue = %v, want requeue", msg.nacked, msg.requeue)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
