// Package queue defines the order events exchanged over RabbitMQ, the
// publisher used by the web server and the consumer that writes them to
// the order event log.
package queue

// Event types.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published after an order is created or changes status.
// It carries enough to write a log line without querying the database.
type OrderEvent struct {
	Type        string `json:"type"`
	OrderID     uint64 `json:"order_id"`
	TableNumber int    `json:"table_number,omitempty"`
	Status      string `json:"status"`
	ItemCount   int    `json:"item_count,omitempty"`
	ActorID     uint64 `json:"actor_id"`
	Actor       string `json:"actor"`
	OccurredAt  string `json:"occurred_at"`
}
