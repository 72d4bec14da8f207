package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/queue"
	"github.com/iliyamo/restaurant-orders/internal/repository"
)

// OrderService places orders and moves them through the kitchen.
type OrderService struct {
	Tables TableStore
	Menu   MenuStore
	Orders OrderStore
	Events EventPublisher
	Now    func() time.Time
	Log    *log.Logger
}

// LineInput is one requested order line.
type LineInput struct {
	MenuItemID uint64
	Quantity   int
	Notes      string
}

// Submit places an order for tableID.  Lines with a quantity below one are
// dropped; when nothing remains the call fails with a validation error.
// The order, its lines, the table occupancy and the audit entry are written
// atomically.
func (s *OrderService) Submit(ctx context.Context, actor Actor, tableID uint64, lines []LineInput, notes string) (model.Order, error) {
	var valid []LineInput
	for _, l := range lines {
		if l.Quantity >= 1 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return model.Order{}, validationf("no items in order")
	}

	if _, err := s.Tables.GetTable(ctx, tableID); err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return model.Order{}, notFoundf("table not found")
		}
		return model.Order{}, fmt.Errorf("load table %d: %w", tableID, err)
	}

	ids := make([]uint64, 0, len(valid))
	seen := map[uint64]bool{}
	for _, l := range valid {
		if !seen[l.MenuItemID] {
			seen[l.MenuItemID] = true
			ids = append(ids, l.MenuItemID)
		}
	}
	menu, err := s.Menu.MenuItemsByIDs(ctx, ids)
	if err != nil {
		return model.Order{}, fmt.Errorf("load menu items: %w", err)
	}
	items := make([]model.OrderItem, 0, len(valid))
	for _, l := range valid {
		if _, ok := menu[l.MenuItemID]; !ok {
			return model.Order{}, notFoundf("menu item %d not found", l.MenuItemID)
		}
		items = append(items, model.OrderItem{MenuItemID: l.MenuItemID, Quantity: l.Quantity, Notes: l.Notes})
	}

	now := nowOr(s.Now)
	var tableNumber int
	order, err := s.Orders.PlaceOrder(ctx, repository.PlaceOrderParams{
		TableID:   tableID,
		WaiterID:  actor.ID,
		Notes:     notes,
		CreatedAt: now,
		Items:     items,
		Audit: func(o model.Order, t model.Table) model.AuditEntry {
			tableNumber = t.Number
			return actor.audit("Create order", fmt.Sprintf("Order %d for table %d", o.ID, t.Number), now)
		},
	})
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return model.Order{}, notFoundf("table not found")
		}
		return model.Order{}, fmt.Errorf("place order: %w", err)
	}

	s.publish(ctx, queue.OrderEvent{
		Type:        queue.EventOrderCreated,
		OrderID:     order.ID,
		TableNumber: tableNumber,
		Status:      string(order.Status),
		ItemCount:   len(items),
		ActorID:     actor.ID,
		Actor:       actor.Username,
		OccurredAt:  now.UTC().Format(time.RFC3339),
	})
	return order, nil
}

// UpdateStatus is the kitchen transition.  Only preparing and ready are
// accepted as targets.  Setting the current status again succeeds and is
// audited; moving backwards is rejected.
func (s *OrderService) UpdateStatus(ctx context.Context, actor Actor, orderID uint64, target string) error {
	next := model.OrderStatus(strings.TrimSpace(target))
	if next != model.StatusPreparing && next != model.StatusReady {
		return validationf("invalid status")
	}
	return s.transition(ctx, actor, orderID, next, func(cur model.OrderStatus) error {
		if !cur.CanMoveTo(next) {
			return validationf("cannot move order from %s to %s", cur, next)
		}
		return nil
	}, fmt.Sprintf("Change order status to %s", next))
}

// Deliver marks a ready order as delivered.
func (s *OrderService) Deliver(ctx context.Context, actor Actor, orderID uint64) error {
	return s.transition(ctx, actor, orderID, model.StatusDelivered, func(cur model.OrderStatus) error {
		if cur != model.StatusReady {
			return validationf("only ready orders can be delivered (order is %s)", cur)
		}
		return nil
	}, "Mark order as delivered")
}

func (s *OrderService) transition(ctx context.Context, actor Actor, orderID uint64, next model.OrderStatus,
	check func(model.OrderStatus) error, action string) error {
	now := nowOr(s.Now)
	order, err := s.Orders.TransitionOrder(ctx, orderID, next, check,
		actor.audit(action, fmt.Sprintf("Order %d", orderID), now))
	if err != nil {
		var se *Error
		switch {
		case errors.As(err, &se):
			return err
		case errors.Is(err, repository.ErrOrderNotFound):
			return notFoundf("order not found")
		}
		return fmt.Errorf("update order %d: %w", orderID, err)
	}
	s.publish(ctx, queue.OrderEvent{
		Type:       queue.EventOrderStatusChanged,
		OrderID:    order.ID,
		Status:     string(order.Status),
		ActorID:    actor.ID,
		Actor:      actor.Username,
		OccurredAt: now.UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *OrderService) publish(ctx context.Context, ev queue.OrderEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, ev); err != nil {
		logger(s.Log).Warnf("publish %s for order %d: %v", ev.Type, ev.OrderID, err)
	}
}

// KitchenOrder is an order waiting in the kitchen with its lines grouped
// for display.
type KitchenOrder struct {
	model.OrderDetail
	Groups []GroupedItem
}

// KitchenQueue returns unclaimed and preparing orders, oldest first.
func (s *OrderService) KitchenQueue(ctx context.Context) ([]KitchenOrder, error) {
	details, err := s.Orders.OrdersByStatus(ctx, model.StatusUnclaimed, model.StatusPreparing)
	if err != nil {
		return nil, fmt.Errorf("load kitchen queue: %w", err)
	}
	out := make([]KitchenOrder, 0, len(details))
	for _, d := range details {
		out = append(out, KitchenOrder{OrderDetail: d, Groups: GroupItems(d.Lines)})
	}
	return out, nil
}
