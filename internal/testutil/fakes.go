package testutil

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-orders/internal/queue"
)

// Publisher records published events.  Err, when set, is returned from
// every Publish call after the event is recorded.
type Publisher struct {
	mu     sync.Mutex
	Err    error
	events []queue.OrderEvent
}

func (p *Publisher) Publish(ctx context.Context, ev queue.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.Err
}

// Events returns the recorded events in publish order.
func (p *Publisher) Events() []queue.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.OrderEvent(nil), p.events...)
}

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock returns a clock stopped at t.
func NewClock(t time.Time) *Clock { return &Clock{t: t} }

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// Logger returns a logger that discards its output.
func Logger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}
