package model

import "time"

// AuditEntry is an append-only record of a user action.
type AuditEntry struct {
	ID        uint64    // audit_log.id
	UserID    uint64    // audit_log.user_id
	Action    string    // audit_log.action
	Details   string    // audit_log.details
	Timestamp time.Time // audit_log.created_at

	Username string // joined from users, read paths only
}
