package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// OrderRepo provides the order ledger: order headers and their lines.
// All timestamps are stored in UTC.
type OrderRepo struct{ db *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// PlaceOrderParams describes a new order.  Audit builds the audit entry
// once the order id and the table are known.
type PlaceOrderParams struct {
	TableID   uint64
	WaiterID  uint64
	Notes     string
	CreatedAt time.Time
	Items     []model.OrderItem
	Audit     func(model.Order, model.Table) model.AuditEntry
}

// PlaceOrder inserts the order header and all of its lines, marks the
// table occupied and appends the audit entry in a single transaction.
// Either every row is written or none is.
func (r *OrderRepo) PlaceOrder(ctx context.Context, p PlaceOrderParams) (model.Order, error) {
	var order model.Order
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		table, err := scanTable(tx.QueryRowContext(ctx,
			"SELECT "+tableColumns+" FROM tables WHERE id = ? FOR UPDATE", p.TableID))
		if err != nil {
			return err
		}
		order = model.Order{
			TableID:   p.TableID,
			WaiterID:  p.WaiterID,
			Status:    model.StatusUnclaimed,
			Notes:     p.Notes,
			CreatedAt: p.CreatedAt.UTC(),
		}
		if err := r.createTx(ctx, tx, &order); err != nil {
			return err
		}
		items := make([]model.OrderItem, len(p.Items))
		for i, it := range p.Items {
			it.OrderID = order.ID
			items[i] = it
		}
		if err := r.createItemsBulkTx(ctx, tx, items); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE tables SET is_available = FALSE WHERE id = ?", table.ID); err != nil {
			return err
		}
		table.IsAvailable = false
		return appendAudit(ctx, tx, p.Audit(order, table))
	})
	if err != nil {
		return model.Order{}, err
	}
	return order, nil
}

func (r *OrderRepo) createTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	const q = `INSERT INTO orders (table_id, waiter_id, status, notes, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, o.TableID, o.WaiterID, string(o.Status), o.Notes, o.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// createItemsBulkTx inserts every line with one multi-row statement.
func (r *OrderRepo) createItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, menu_item_id, quantity, notes) VALUES `
	args := make([]any, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.MenuItemID, it.Quantity, it.Notes)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// TransitionOrder locks the order, asks check whether moving from its
// current status to next is allowed, then writes the status and the audit
// entry.  An error from check is returned unchanged and nothing is
// written.
func (r *OrderRepo) TransitionOrder(ctx context.Context, id uint64, next model.OrderStatus,
	check func(current model.OrderStatus) error, audit model.AuditEntry) (model.Order, error) {
	var o model.Order
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			"SELECT id, table_id, waiter_id, status, notes, created_at FROM orders WHERE id = ? FOR UPDATE", id).
			Scan(&o.ID, &o.TableID, &o.WaiterID, &status, &o.Notes, &o.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		o.Status = model.OrderStatus(status)
		if err := check(o.Status); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE orders SET status = ? WHERE id = ?", string(next), id); err != nil {
			return err
		}
		o.Status = next
		return appendAudit(ctx, tx, audit)
	})
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

const orderDetailSelect = `SELECT o.id, o.table_id, o.waiter_id, o.status, o.notes, o.created_at, t.number, u.username
	FROM orders o
	JOIN tables t ON t.id = o.table_id
	JOIN users u ON u.id = o.waiter_id`

// OrdersByStatus returns orders in any of the given statuses, oldest
// first, with their lines loaded.
func (r *OrderRepo) OrdersByStatus(ctx context.Context, statuses ...model.OrderStatus) ([]model.OrderDetail, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	q := orderDetailSelect + " WHERE o.status IN (" + placeholders(len(statuses)) + ") ORDER BY o.created_at ASC, o.id ASC"
	return r.listDetails(ctx, q, args...)
}

// OrdersCreatedBetween returns orders created in [from, to), oldest
// first, with their lines loaded.
func (r *OrderRepo) OrdersCreatedBetween(ctx context.Context, from, to time.Time) ([]model.OrderDetail, error) {
	q := orderDetailSelect + " WHERE o.created_at >= ? AND o.created_at < ? ORDER BY o.created_at ASC, o.id ASC"
	return r.listDetails(ctx, q, from.UTC(), to.UTC())
}

// CountOrdersCreatedBetween counts orders created in [from, to).
func (r *OrderRepo) CountOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).Scan(&n)
	return n, err
}

func (r *OrderRepo) listDetails(ctx context.Context, q string, args ...any) ([]model.OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OrderDetail
	index := map[uint64]int{}
	for rows.Next() {
		var d model.OrderDetail
		var status string
		if err := rows.Scan(&d.ID, &d.TableID, &d.WaiterID, &status, &d.Notes, &d.CreatedAt,
			&d.TableNumber, &d.WaiterUsername); err != nil {
			return nil, err
		}
		d.Status = model.OrderStatus(status)
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	ids := make([]any, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	lrows, err := r.db.QueryContext(ctx, `SELECT oi.id, oi.order_id, oi.menu_item_id, oi.quantity, oi.notes, m.name, m.price
		FROM order_items oi JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id IN (`+placeholders(len(ids))+`) ORDER BY oi.id`, ids...)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var l model.OrderLine
		if err := lrows.Scan(&l.ID, &l.OrderID, &l.MenuItemID, &l.Quantity, &l.Notes, &l.MenuItemName, &l.UnitPrice); err != nil {
			return nil, err
		}
		if i, ok := index[l.OrderID]; ok {
			out[i].Lines = append(out[i].Lines, l)
		}
	}
	return out, lrows.Err()
}
