package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so helpers can run inside
// or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction.  The transaction is committed when
// fn returns nil and rolled back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// appendAudit inserts an audit_log row.  It is called with the same
// transaction as the mutation it records.
func appendAudit(ctx context.Context, q DBTX, e model.AuditEntry) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO audit_log (user_id, action, details, created_at) VALUES (?,?,?,?)",
		e.UserID, e.Action, e.Details, e.Timestamp.UTC())
	return err
}

// placeholders returns "?,?,?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
