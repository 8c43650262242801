package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpDelivery settles a decoded job on the consumer channel it arrived on
type amqpDelivery struct {
	job *Job
	raw amqp.Delivery
}

func (d *amqpDelivery) Job() *Job { return d.job }

func (d *amqpDelivery) Ack() error { return d.raw.Ack(false) }

// Nack without requeue routes the message to the dead-letter queue
func (d *amqpDelivery) Nack(requeue bool) error { return d.raw.Nack(false, requeue) }

var _ Delivery = (*amqpDelivery)(nil)
