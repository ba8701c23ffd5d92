package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const bookingCommittedQueue = "booking.committed"

// RabbitMQPublisher publishes booking events to a durable RabbitMQ queue.
// Each publish dials its own short-lived connection; commit throughput is
// bounded by seat arbitration, not by event fan-out, so the simplicity wins
// over connection pooling here.
type RabbitMQPublisher struct {
	url string
}

func NewRabbitMQPublisher(url string) *RabbitMQPublisher {
	return &RabbitMQPublisher{url: url}
}

func (p *RabbitMQPublisher) PublishBookingCommitted(ctx context.Context, event BookingCommitted) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("failed to dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	// Idempotent; durable so events survive a broker restart.
	_, err = ch.QueueDeclare(bookingCommittedQueue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx,
		"",
		bookingCommittedQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
