package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads order events and appends one line per event to LogPath.
type Consumer struct {
	URL     string
	Queue   string
	LogPath string
	Log     *log.Logger
}

// Run keeps a connection to the broker until ctx is cancelled, redialing
// with exponential backoff (capped at 30s) when the connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warnf("order-events: dial failed: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warnf("order-events: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warnf("order-events: set QoS failed: %v", err)
	}
	if _, err := declare(ch, c.Queue); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.Log.Errorf("order-events: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends its log line.
func (c *Consumer) Handle(body []byte) error {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single log line ending in a newline.
func FormatLine(ev OrderEvent) string {
	switch ev.Type {
	case EventOrderCreated:
		return fmt.Sprintf("[%s] Order created | order_id=%d | table=%d | items=%d | by=%q\n",
			ev.OccurredAt, ev.OrderID, ev.TableNumber, ev.ItemCount, ev.Actor)
	case EventOrderStatusChanged:
		return fmt.Sprintf("[%s] Order status changed | order_id=%d | status=%s | by=%q\n",
			ev.OccurredAt, ev.OrderID, ev.Status, ev.Actor)
	}
	return fmt.Sprintf("[%s] %s | order_id=%d | status=%s | by=%q\n",
		ev.OccurredAt, ev.Type, ev.OrderID, ev.Status, ev.Actor)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
