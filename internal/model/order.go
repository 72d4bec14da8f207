package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle stage of an order.
type OrderStatus string

const (
	StatusUnclaimed OrderStatus = "unclaimed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

var statusRank = map[OrderStatus]int{
	StatusUnclaimed: 0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusDelivered: 3,
}

var statusLabels = map[OrderStatus]string{
	StatusUnclaimed: "Unclaimed",
	StatusPreparing: "Preparing",
	StatusReady:     "Ready",
	StatusDelivered: "Delivered",
}

// Label returns the display text for the status.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanMoveTo reports whether an order in status s may be set to next.
// Statuses only move forward; setting the current status again is allowed.
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	from, ok1 := statusRank[s]
	to, ok2 := statusRank[next]
	if !ok1 || !ok2 {
		return false
	}
	if s == StatusDelivered {
		return false
	}
	return to >= from
}

// Order is the header row of the `orders` table.
//
// Fields:
//	ID        – primary key identifier.
//	TableID   – table the order was placed for.
//	WaiterID  – user who placed the order.
//	Status    – lifecycle stage.
//	Notes     – free text for the whole order.
//	CreatedAt – creation timestamp (UTC).
type Order struct {
	ID        uint64      // orders.id
	TableID   uint64      // orders.table_id
	WaiterID  uint64      // orders.waiter_id
	Status    OrderStatus // orders.status
	Notes     string      // orders.notes
	CreatedAt time.Time   // orders.created_at
}

// OrderItem is a single line of an order.  Lines are written together
// with their order and never change afterwards.
type OrderItem struct {
	ID         uint64 // order_items.id
	OrderID    uint64 // order_items.order_id
	MenuItemID uint64 // order_items.menu_item_id
	Quantity   int    // order_items.quantity
	Notes      string // order_items.notes
}

// OrderLine is an OrderItem joined with the menu item it references.
type OrderLine struct {
	OrderItem
	MenuItemName string
	UnitPrice    decimal.Decimal
}

// Subtotal returns quantity × unit price.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderDetail is an order with the table number, the waiter's username
// and all of its lines.  It is what list queries return.
type OrderDetail struct {
	Order
	TableNumber    int
	WaiterUsername string
	Lines          []OrderLine
}

// Total sums the subtotals of every line.  An order without lines totals
// zero.
func (o OrderDetail) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
