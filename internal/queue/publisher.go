package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds connecting to the broker, handshake included.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends order events to a durable queue.  A Publisher with an
// empty URL is disabled and Publish becomes a no-op.  Errors are returned
// to the caller, which logs them; they never fail a request.
type Publisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration
}

// NewPublisher returns a publisher for the given broker URL and queue.
func NewPublisher(url, queueName string) *Publisher {
	return &Publisher{URL: url, Queue: queueName, DialTimeout: DefaultDialTimeout}
}

// dialTimeout is DialTimeout, shortened to the deadline of ctx.
func (p *Publisher) dialTimeout(ctx context.Context) time.Duration {
	d := p.DialTimeout
	if d <= 0 {
		d = DefaultDialTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	return d
}

// Publish delivers ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev OrderEvent) error {
	if p == nil || p.URL == "" {
		return nil
	}
	timeout := p.dialTimeout(ctx)
	if timeout <= 0 {
		return fmt.Errorf("rabbitmq: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.Queue); err != nil {
		return fmt.Errorf("rabbitmq declare %s: %w", p.Queue, err)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, true, false, false, false, nil)
}
