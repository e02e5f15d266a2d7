// Package events publishes booking lifecycle notifications to an AMQP
// exchange. Publishing is best-effort: a broker failure is logged and never
// fails the request that triggered it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys for booking lifecycle events.
const (
	BookingCreated = "booking.created"
	BookingUpdated = "booking.updated"
	BookingDeleted = "booking.deleted"
)

// Publisher emits booking lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any)
	Close() error
}

// Nop discards events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) {}
func (Nop) Close() error                         { return nil }

// AMQPPublisher publishes JSON payloads to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *log.Logger
}

// NewAMQP dials the broker and declares the exchange.
func NewAMQP(url, exchange string, logger *log.Logger) (*AMQPPublisher, error) {
	if logger == nil {
		logger = log.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends one event. Errors are logged, not returned.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Printf("events: encode %s: %v", routingKey, err)
		return
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
	if err != nil {
		p.logger.Printf("events: publish %s: %v", routingKey, err)
	}
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
