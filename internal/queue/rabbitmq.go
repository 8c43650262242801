package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	DefaultQueueName           = "postcraft_jobs"
	DefaultDLQName             = "postcraft_jobs_dlq"
	DefaultExchangeName        = "postcraft"
	DefaultDelayedExchangeName = "postcraft_delayed"
	// DLQMessageTTL bounds how long dead-lettered jobs are retained
	DLQMessageTTL = 24 * time.Hour

	routingKeyPrefix = "job."
	routingKeyAll    = "job.#"
	routingKeyDead   = "dead"
)

// topology names the broker objects the queue declares. Jobs are published to
// a topic exchange keyed by job type; the delayed exchange, when the broker
// has the delayed-message plugin, feeds the same queue after x-delay.
type topology struct {
	queue           string
	dlq             string
	exchange        string
	delayedExchange string
}

func defaultTopology() topology {
	return topology{
		queue:           DefaultQueueName,
		dlq:             DefaultDLQName,
		exchange:        DefaultExchangeName,
		delayedExchange: DefaultDelayedExchangeName,
	}
}

// RabbitMQQueue publishes and consumes background jobs
type RabbitMQQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// publishMu serializes publishes on the shared channel
	publishMu        sync.Mutex
	names            topology
	delayedAvailable bool
	logger           *zap.Logger
}

// NewRabbitMQQueue dials the broker, declares the topology and puts the
// publishing channel in confirm mode.
func NewRabbitMQQueue(amqpURL string, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q := &RabbitMQQueue{conn: conn, channel: ch, names: defaultTopology(), logger: logger}

	q.declareDelayedExchange()
	if err := q.declare(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}
	if err := q.channel.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return q, nil
}

// declareDelayedExchange tries the plugin exchange. Without the plugin the
// broker closes the channel, so a fresh one is opened and delayed retries
// fall back to immediate redelivery.
func (q *RabbitMQQueue) declareDelayedExchange() {
	err := q.channel.ExchangeDeclare(q.names.delayedExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "topic"})
	if err == nil {
		q.delayedAvailable = true
		return
	}
	q.logger.Warn("delayed_exchange_unavailable", zap.Error(err))

	if q.channel.IsClosed() {
		if ch, openErr := q.conn.Channel(); openErr == nil {
			q.channel = ch
		} else {
			q.logger.Error("failed_to_reopen_channel", zap.Error(openErr))
		}
	}
}

func (q *RabbitMQQueue) declare() error {
	n := q.names

	if err := q.channel.ExchangeDeclare(n.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", n.exchange, err)
	}

	queues := []struct {
		name string
		args amqp.Table
	}{
		{n.dlq, amqp.Table{"x-message-ttl": DLQMessageTTL.Milliseconds()}},
		{n.queue, amqp.Table{
			"x-dead-letter-exchange":    n.exchange,
			"x-dead-letter-routing-key": routingKeyDead,
		}},
	}
	for _, qd := range queues {
		if _, err := q.channel.QueueDeclare(qd.name, true, false, false, false, qd.args); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", qd.name, err)
		}
	}

	bindings := []struct{ queue, key, exchange string }{
		{n.dlq, routingKeyDead, n.exchange},
		{n.queue, routingKeyAll, n.exchange},
	}
	if q.delayedAvailable {
		bindings = append(bindings, struct{ queue, key, exchange string }{n.queue, routingKeyAll, n.delayedExchange})
	}
	for _, b := range bindings {
		if err := q.channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// buildPublishing encodes job and picks the exchange. A future NotBefore uses
// the delayed exchange when available; NotAfter becomes the message TTL.
func (q *RabbitMQQueue) buildPublishing(job *Job, now time.Time) (string, amqp.Publishing, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("failed to marshal job: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID.String(),
		Timestamp:    job.CreatedAt,
		Type:         string(job.Type),
	}
	if job.NotAfter != nil {
		if ttl := job.NotAfter.Sub(now); ttl > 0 {
			pub.Expiration = strconv.FormatInt(ttl.Milliseconds(), 10)
		}
	}

	if job.NotBefore == nil || !q.delayedAvailable {
		return q.names.exchange, pub, nil
	}
	delay := job.NotBefore.Sub(now)
	if delay <= 0 {
		return q.names.exchange, pub, nil
	}
	pub.Headers = amqp.Table{"x-delay": delay.Milliseconds()}
	return q.names.delayedExchange, pub, nil
}

// Enqueue publishes job and waits for the broker to confirm it
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	exchange, pub, err := q.buildPublishing(job, time.Now())
	if err != nil {
		return err
	}

	q.publishMu.Lock()
	confirm, err := q.channel.PublishWithDeferredConfirmWithContext(ctx, exchange, job.RoutingKey(), false, false, pub)
	q.publishMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	if confirm != nil {
		acked, err := confirm.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to confirm job: %w", err)
		}
		if !acked {
			return fmt.Errorf("broker rejected job %s", job.ID)
		}
	}

	q.logger.Debug("job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("exchange", exchange),
		zap.Int("retry_count", job.RetryCount),
	)
	return nil
}

// Consume starts an async consumer on a dedicated channel
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan Delivery, <-chan error, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	raw, err := ch.Consume(q.names.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	out := make(chan Delivery, prefetchCount)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)
		defer func() { _ = ch.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-raw:
				if !ok {
					errs <- errors.New("delivery channel closed")
					return
				}
				delivery, ok := q.decode(d, errs)
				if !ok {
					continue
				}
				select {
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				case out <- delivery:
				}
			}
		}
	}()

	return out, errs, nil
}

// decode turns a raw delivery into a Delivery. Undecodable and expired jobs
// are dead-lettered here and never reach the worker.
func (q *RabbitMQQueue) decode(d amqp.Delivery, errs chan<- error) (Delivery, bool) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		_ = d.Nack(false, false)
		q.reportError(errs, fmt.Errorf("failed to unmarshal job %s: %w", d.MessageId, err))
		return nil, false
	}
	if job.Expired(time.Now()) {
		q.logger.Info("job_expired_in_queue",
			zap.String("job_id", job.ID.String()),
			zap.String("job_type", string(job.Type)),
		)
		_ = d.Nack(false, false)
		return nil, false
	}
	return &amqpDelivery{job: &job, raw: d}, true
}

// reportError forwards a consumer error without blocking delivery
func (q *RabbitMQQueue) reportError(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
		q.logger.Warn("queue_error_dropped", zap.Error(err))
	}
}

// HealthCheck reports whether the connection and publishing channel are open
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return errors.New("rabbitmq connection closed")
	case q.channel == nil || q.channel.IsClosed():
		return errors.New("rabbitmq channel closed")
	}
	return nil
}

// Close closes the publishing channel and the connection
func (q *RabbitMQQueue) Close() error {
	var errs []error
	if q.channel != nil {
		errs = append(errs, q.channel.Close())
	}
	if q.conn != nil {
		errs = append(errs, q.conn.Close())
	}
	return errors.Join(errs...)
}
