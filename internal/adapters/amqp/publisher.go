package amqpad

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"itinerary_pricing/internal/adapters/observability"
	"itinerary_pricing/internal/domain"
)

const PricingSavedQueue = "itinerary.pricing.saved"

// Publisher sends domain events to a durable RabbitMQ queue. The connection is opened on
// first use and reopened after the broker drops it.
type Publisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, queue: PricingSavedQueue}
}

func (p *Publisher) PublishPricingSaved(ctx context.Context, ev domain.PricingSavedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("amqp: marshal event: %w", err)
	}
	err = p.publish(ctx, body)
	observability.ObservePublish("pricing.saved", err)
	if err != nil {
		log.Warn().Err(err).Int64("package_id", ev.PackageID).Int64("version", ev.Version).Msg("pricing event publish failed")
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         "pricing.saved",
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.reset()
		return fmt.Errorf("amqp: publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing and declaring the queue when needed. Caller holds mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: declare %s: %w", p.queue, err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) PublishPricingSaved(context.Context, domain.PricingSavedEvent) error { return nil }
