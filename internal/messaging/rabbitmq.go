package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type RabbitMQPublisher struct {
	url      string
	exchange string
	log      *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewRabbitMQPublisher dials the broker and declares a durable topic exchange.
func NewRabbitMQPublisher(url, exchange string, log *zap.Logger) (*RabbitMQPublisher, error) {
	p := &RabbitMQPublisher{
		url:      url,
		exchange: exchange,
		log:      log.With(zap.String("component", "rabbitmq")),
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held or before the publisher is shared.
func (p *RabbitMQPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq exchange declare %s: %w", p.exchange, err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, evt any) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		p.log.Warn("Connection lost, reconnecting", zap.String("routing_key", routingKey))
		if err := p.connect(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		p.log.Error("Failed to publish event", zap.Error(err), zap.String("routing_key", routingKey))
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug("Event published", zap.String("routing_key", routingKey))
	return nil
}

func (p *RabbitMQPublisher) PublishTicketsIssued(ctx context.Context, evt TicketsIssued) error {
	return p.publish(ctx, RoutingTicketsIssued, evt)
}

func (p *RabbitMQPublisher) PublishRefundRequired(ctx context.Context, evt RefundRequired) error {
	return p.publish(ctx, RoutingRefundRequired, evt)
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
