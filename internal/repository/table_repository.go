package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// TableRepo provides access to the seating tables.
type TableRepo struct{ db *sql.DB }

func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = "id, number, capacity, is_available"

// ListTables returns every table ordered by number.
func (r *TableRepo) ListTables(ctx context.Context) ([]model.Table, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+tableColumns+" FROM tables ORDER BY number")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.IsAvailable); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTable returns the table with the given id or ErrTableNotFound.
func (r *TableRepo) GetTable(ctx context.Context, id uint64) (model.Table, error) {
	return scanTable(r.db.QueryRowContext(ctx, "SELECT "+tableColumns+" FROM tables WHERE id = ?", id))
}

// CountTables returns the number of tables.
func (r *TableRepo) CountTables(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tables").Scan(&n)
	return n, err
}

// ToggleTable flips is_available and records the audit entry built by
// audit from the updated row, all in one transaction.
func (r *TableRepo) ToggleTable(ctx context.Context, id uint64, audit func(model.Table) model.AuditEntry) (model.Table, error) {
	var t model.Table
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		cur, err := scanTable(tx.QueryRowContext(ctx,
			"SELECT "+tableColumns+" FROM tables WHERE id = ? FOR UPDATE", id))
		if err != nil {
			return err
		}
		cur.IsAvailable = !cur.IsAvailable
		if _, err := tx.ExecContext(ctx, "UPDATE tables SET is_available = ? WHERE id = ?", cur.IsAvailable, id); err != nil {
			return err
		}
		if err := appendAudit(ctx, tx, audit(cur)); err != nil {
			return err
		}
		t = cur
		return nil
	})
	return t, err
}

// InsertTable creates a table if its number is not taken yet.  It reports
// whether a row was inserted.
func (r *TableRepo) InsertTable(ctx context.Context, t model.Table) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO tables (number, capacity, is_available) VALUES (?,?,?)",
		t.Number, t.Capacity, t.IsAvailable)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanTable(row *sql.Row) (model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.IsAvailable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Table{}, ErrTableNotFound
		}
		return model.Table{}, err
	}
	return t, nil
}
