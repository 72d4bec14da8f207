package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid is returned for unknown, revoked or expired refresh
// tokens.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// TokenRepo persists hashed refresh tokens that back browser sessions.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owning user id of a live token.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRefreshInvalid
	}
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || now.UTC().After(expiresAt) {
		return 0, ErrRefreshInvalid
	}
	return userID, nil
}

// RevokeRefresh marks a token as revoked.  Revoking an unknown or already
// revoked token is not an error.
func (r *TokenRepo) RevokeRefresh(ctx context.Context, tokenHash string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		now.UTC(), tokenHash)
	return err
}
