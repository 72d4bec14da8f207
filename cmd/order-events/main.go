// Command order-events consumes the order event queue and appends one
// line per event to the order log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/iliyamo/restaurant-orders/internal/config"
	"github.com/iliyamo/restaurant-orders/internal/queue"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEvents()
	logger := config.NewLogger("order-events", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: cfg.AMQPURL, Queue: cfg.Queue, LogPath: cfg.LogPath, Log: logger}
	logger.Infof("consuming %s into %s", cfg.Queue, cfg.LogPath)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("consumer: %v", err)
	}
}
