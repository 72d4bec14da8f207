package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// MenuRepo provides access to the menu catalog.
type MenuRepo struct{ db *sql.DB }

func NewMenuRepo(db *sql.DB) *MenuRepo { return &MenuRepo{db: db} }

const menuColumns = "id, name, description, price, available"

// ListMenuItems returns the catalog ordered by name.  When onlyAvailable
// is set, items flagged unavailable are skipped.
func (r *MenuRepo) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]model.MenuItem, error) {
	q := "SELECT " + menuColumns + " FROM menu_items"
	if onlyAvailable {
		q += " WHERE available = TRUE"
	}
	q += " ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Available); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MenuItemsByIDs loads the given items keyed by id.  Ids with no row are
// simply absent from the map.
func (r *MenuRepo) MenuItemsByIDs(ctx context.Context, ids []uint64) (map[uint64]model.MenuItem, error) {
	out := make(map[uint64]model.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+menuColumns+" FROM menu_items WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Available); err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

// CountMenuItems returns the catalog size.
func (r *MenuRepo) CountMenuItems(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM menu_items").Scan(&n)
	return n, err
}

// ToggleMenuItem flips the availability flag and audits it in one
// transaction.
func (r *MenuRepo) ToggleMenuItem(ctx context.Context, id uint64, audit func(model.MenuItem) model.AuditEntry) (model.MenuItem, error) {
	var m model.MenuItem
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, "SELECT "+menuColumns+" FROM menu_items WHERE id = ? FOR UPDATE", id).
			Scan(&m.ID, &m.Name, &m.Description, &m.Price, &m.Available)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMenuItemNotFound
		}
		if err != nil {
			return err
		}
		m.Available = !m.Available
		if _, err := tx.ExecContext(ctx, "UPDATE menu_items SET available = ? WHERE id = ?", m.Available, id); err != nil {
			return err
		}
		return appendAudit(ctx, tx, audit(m))
	})
	if err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

// InsertMenuItem creates a menu item unless one with the same name exists.
// It reports whether a row was inserted.
func (r *MenuRepo) InsertMenuItem(ctx context.Context, m model.MenuItem) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM menu_items WHERE name = ?)", m.Name).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO menu_items (name, description, price, available) VALUES (?,?,?,?)",
		m.Name, m.Description, m.Price, m.Available)
	return err == nil, err
}
