package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestQueue(delayed bool) *RabbitMQQueue {
	return &RabbitMQQueue{
		names:            defaultTopology(),
		delayedAvailable: delayed,
		logger:           zap.NewNop(),
	}
}

func TestBuildPublishing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		delayed      bool
		notBefore    *time.Time
		notAfter     *time.Time
		wantExchange string
		wantDelay    bool
		wantExpiry   string
	}{
		{name: "immediate", delayed: true, wantExchange: DefaultExchangeName},
		{name: "delayed", delayed: true, notBefore: timePtr(now.Add(30 * time.Second)), wantExchange: DefaultDelayedExchangeName, wantDelay: true},
		{name: "delay in past", delayed: true, notBefore: timePtr(now.Add(-time.Second)), wantExchange: DefaultExchangeName},
		{name: "no delayed plugin", delayed: false, notBefore: timePtr(now.Add(30 * time.Second)), wantExchange: DefaultExchangeName},
		{name: "expiring", delayed: true, notAfter: timePtr(now.Add(2 * time.Second)), wantExchange: DefaultExchangeName, wantExpiry: "2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := newTestQueue(tt.delayed)
			job := NewMemoryIngestJob(uuid.New(), uuid.New())
			job.NotBefore = tt.notBefore
			job.NotAfter = tt.notAfter

			exchange, pub, err := q.buildPublishing(job, now)
			if err != nil {
				t.Fatalf("buildPublishing() error = %v", err)
			}
			if exchange != tt.wantExchange {
				t.Errorf("exchange = %q, want %q", exchange, tt.wantExchange)
			}
			if _, ok := pub.Headers["x-delay"]; ok != tt.wantDelay {
				t.Errorf("x-delay header present = %v, want %v", ok, tt.wantDelay)
			}
			if pub.Expiration != tt.wantExpiry {
				t.Errorf("Expiration = %q, want %q", pub.Expiration, tt.wantExpiry)
			}
			if pub.MessageId != job.ID.String() {
				t.Errorf("MessageId = %q, want %q", pub.MessageId, job.ID.String())
			}
			if pub.Type != string(JobTypeMemoryIngest) {
				t.Errorf("Type = %q", pub.Type)
			}
		})
	}
}

func TestHealthCheck_Unconnected(t *testing.T) {
	t.Parallel()

	if err := newTestQueue(false).HealthCheck(context.Background()); err == nil {
		t.Error("expected an error without a connection")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newTestQueue(false).HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() = %v, want context.Canceled", err)
	}
}

func TestClose_Unconnected(t *testing.T) {
	t.Parallel()

	if err := newTestQueue(false).Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second, 30 * time.Second}
	for attempt, w := range want {
		if got := backoff(attempt); got != w {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}
