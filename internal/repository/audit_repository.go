package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// AuditRepo reads the audit trail.  Writes happen through appendAudit
// inside the transaction of each mutation.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// ListAudit returns the newest entries first.  A limit of zero or less
// returns every entry.
func (r *AuditRepo) ListAudit(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	q := `SELECT a.id, a.user_id, u.username, a.action, a.details, a.created_at
	      FROM audit_log a JOIN users u ON u.id = a.user_id
	      ORDER BY a.created_at DESC, a.id DESC`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
