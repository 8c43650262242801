package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// backoff returns the wait before the next connection attempt
func backoff(attempt int) time.Duration {
	if attempt > 4 {
		return connectMaxDelay
	}
	return min(connectInitialDelay*time.Duration(1<<attempt), connectMaxDelay)
}

// ConnectWithRetry dials RabbitMQ, retrying with exponential backoff while the
// broker starts up.
func ConnectWithRetry(ctx context.Context, amqpURL string, maxAttempts int, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		q, err := NewRabbitMQQueue(amqpURL, logger)
		if err == nil {
			logger.Info("connected_to_rabbitmq", zap.Int("attempt", attempt+1))
			return q, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}

		delay := backoff(attempt)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxAttempts, lastErr)
}
