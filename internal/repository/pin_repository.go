package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// PINRepo stores registration PINs.
type PINRepo struct{ db *sql.DB }

func NewPINRepo(db *sql.DB) *PINRepo { return &PINRepo{db: db} }

// CreatePIN inserts the PIN with zero uses and appends the audit entry.
// A duplicate code yields ErrPINCollision and writes nothing.
func (r *PINRepo) CreatePIN(ctx context.Context, pin model.RegistrationPIN, audit model.AuditEntry) (model.RegistrationPIN, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO registration_pins (code, role, created_by, uses, created_at) VALUES (?,?,?,0,?)",
			pin.Code, pin.Role, pin.CreatedBy, pin.CreatedAt.UTC())
		if err != nil {
			if isDuplicateKey(err) {
				return ErrPINCollision
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		pin.ID = uint64(id)
		pin.Uses = 0
		return appendAudit(ctx, tx, audit)
	})
	if err != nil {
		return model.RegistrationPIN{}, err
	}
	return pin, nil
}

// ListPINs returns every PIN, newest first.
func (r *PINRepo) ListPINs(ctx context.Context) ([]model.RegistrationPIN, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT p.id, p.code, p.role, p.created_by, u.username, p.uses, p.created_at
		FROM registration_pins p JOIN users u ON u.id = p.created_by
		ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RegistrationPIN
	for rows.Next() {
		var p model.RegistrationPIN
		if err := rows.Scan(&p.ID, &p.Code, &p.Role, &p.CreatedBy, &p.CreatorUsername, &p.Uses, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
