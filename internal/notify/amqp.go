package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"kimmigration/pkg/domain"
)

// ConsultationEvent describes a lifecycle change on a consultation record.
type ConsultationEvent struct {
	Type           string               `json:"type"` // created | status_changed | paid
	ConsultationID string               `json:"consultationId"`
	Email          string               `json:"email"`
	ProcessStatus  domain.ProcessStatus `json:"processStatus"`
	OccurredAt     time.Time            `json:"occurredAt"`
}

// EventPublisher emits consultation events for downstream consumers
// (mail/SMS workers). A nil *AMQPPublisher is a valid no-op publisher so
// deployments without a broker need no special casing.
type EventPublisher interface {
	PublishConsultationEvent(ctx context.Context, ev ConsultationEvent) error
}

// AMQPPublisher publishes events to a fanout exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher connects to the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) PublishConsultationEvent(ctx context.Context, ev ConsultationEvent) error {
	if p == nil {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
