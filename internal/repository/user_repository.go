package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// UserRepo manages users and their role records in user_profiles.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userSelect = `SELECT u.id, u.username, u.password_hash, u.is_superuser, COALESCE(p.role, ''), u.created_at
	FROM users u LEFT JOIN user_profiles p ON p.user_id = u.id`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsSuperuser, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}

// UserByUsername fetches a user by trimmed username.
func (r *UserRepo) UserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.username = ? LIMIT 1", strings.TrimSpace(username)))
}

// UserByID fetches a user by id.
func (r *UserRepo) UserByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx, userSelect+" WHERE u.id = ? LIMIT 1", id))
}

// ListUsers returns every user ordered by username.
func (r *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, userSelect+" ORDER BY u.username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUsers returns the number of users.
func (r *UserRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// EnsureRole returns the user's role, creating the profile row with
// model.DefaultRole when it is missing.
func (r *UserRepo) EnsureRole(ctx context.Context, userID uint64) (model.Role, error) {
	if _, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO user_profiles (user_id, role) VALUES (?, ?)", userID, string(model.DefaultRole)); err != nil {
		return "", err
	}
	var role string
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM user_profiles WHERE user_id = ?", userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return model.Role(role), err
}

// SetUserRole replaces the user's role and audits it.
func (r *UserRepo) SetUserRole(ctx context.Context, userID uint64, role model.Role, audit model.AuditEntry) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrUserNotFound
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_profiles (user_id, role) VALUES (?, ?) ON DUPLICATE KEY UPDATE role = VALUES(role)",
			userID, string(role)); err != nil {
			return err
		}
		return appendAudit(ctx, tx, audit)
	})
}

// CreateUser inserts a user with its role record.  It is used by
// provisioning; self-registration goes through RegisterWithPIN.
func (r *UserRepo) CreateUser(ctx context.Context, username, passwordHash string, role model.Role, superuser bool) (model.User, error) {
	var u model.User
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var err error
		u, err = insertUserTx(ctx, tx, username, passwordHash, role, superuser, time.Now().UTC())
		return err
	})
	return u, err
}

// RegisterParams describes a PIN-gated self-registration.
type RegisterParams struct {
	Username     string
	PasswordHash string
	PIN          string
	CreatedAt    time.Time
	Audit        func(model.User) model.AuditEntry
}

// RegisterWithPIN consumes one use of the PIN and creates the user with
// the role the PIN grants, in one transaction.  It returns ErrPINNotFound
// when the PIN is unknown or exhausted and ErrUserExists when the username
// is taken.  The use counter is incremented with a conditional update, so
// two registrations racing on the last use cannot both succeed.
func (r *UserRepo) RegisterWithPIN(ctx context.Context, p RegisterParams) (model.User, error) {
	var u model.User
	err := withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var pinID uint64
		var pinRole string
		err := tx.QueryRowContext(ctx,
			"SELECT id, role FROM registration_pins WHERE code = ? AND uses < ? LIMIT 1 FOR UPDATE",
			p.PIN, model.MaxPINUses).Scan(&pinID, &pinRole)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPINNotFound
		}
		if err != nil {
			return err
		}
		var taken bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", p.Username).Scan(&taken); err != nil {
			return err
		}
		if taken {
			return ErrUserExists
		}
		u, err = insertUserTx(ctx, tx, p.Username, p.PasswordHash, model.RoleOrDefault(pinRole), false, p.CreatedAt)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE registration_pins SET uses = uses + 1 WHERE id = ? AND uses < ?", pinID, model.MaxPINUses)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrPINNotFound
		}
		return appendAudit(ctx, tx, p.Audit(u))
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func insertUserTx(ctx context.Context, tx *sql.Tx, username, hash string, role model.Role, superuser bool, at time.Time) (model.User, error) {
	username = strings.TrimSpace(username)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, is_superuser, created_at) VALUES (?,?,?,?)",
		username, hash, superuser, at.UTC())
	if err != nil {
		if isDuplicateKey(err) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_profiles (user_id, role) VALUES (?, ?)", id, string(role)); err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           uint64(id),
		Username:     username,
		PasswordHash: hash,
		IsSuperuser:  superuser,
		Role:         role,
		CreatedAt:    at.UTC(),
	}, nil
}
