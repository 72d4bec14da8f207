// Package repository holds the MySQL data access layer.  Each repository
// wraps a *sql.DB and returns the sentinel errors below so that higher
// layers can tell failure scenarios apart without inspecting driver
// errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrTableNotFound is returned when a table id does not exist.
	ErrTableNotFound = errors.New("table not found")
	// ErrMenuItemNotFound is returned when a menu item id does not exist.
	ErrMenuItemNotFound = errors.New("menu item not found")
	// ErrOrderNotFound is returned when an order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound is returned when a user lookup matches no row.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists signals a username uniqueness violation.
	ErrUserExists = errors.New("username already exists")
	// ErrPINNotFound is returned when no PIN with remaining uses matches.
	ErrPINNotFound = errors.New("pin not found or exhausted")
	// ErrPINCollision signals a PIN code uniqueness violation.
	ErrPINCollision = errors.New("pin code already exists")
	// ErrConflict is returned when a conditional update matched no row
	// because another request changed the row first.
	ErrConflict = errors.New("conflict")
)

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
