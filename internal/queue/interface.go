package queue

import (
	"context"
)

// Delivery is a consumed job awaiting settlement. Every delivery must be
// either acked or nacked exactly once.
type Delivery interface {
	Job() *Job
	Ack() error
	Nack(requeue bool) error
}

// Enqueuer publishes background jobs (memory ingestion, trending refresh)
type Enqueuer interface {
	Enqueue(ctx context.Context, job *Job) error
}

// JobQueue is the broker as seen by the server health check and the worker
type JobQueue interface {
	Enqueuer

	// Consume streams decoded deliveries until ctx ends. Expired and
	// undecodable messages are dead-lettered before reaching the channel.
	Consume(ctx context.Context, prefetchCount int) (<-chan Delivery, <-chan error, error)
	Close() error
	HealthCheck(ctx context.Context) error
}

var _ JobQueue = (*RabbitMQQueue)(nil)
