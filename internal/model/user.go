package model

import "time"

// User represents a staff account as stored in the `users` table joined
// with its `user_profiles` row.  Role is empty when no profile row exists
// yet; callers should go through the get-or-create path before relying on
// it.
//
// Fields:
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	IsSuperuser  – grants access to the back-office surface.
//	Role         – role from user_profiles.role.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	IsSuperuser  bool      // users.is_superuser
	Role         Role      // user_profiles.role
	CreatedAt    time.Time // users.created_at
}
