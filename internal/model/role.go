package model

import "strings"

// Role is the single staff role held by a user.  It decides which pages
// and endpoints the user may reach and where the landing page sends them.
type Role string

const (
	RoleWaiter    Role = "waiter"
	RoleCook      Role = "cook"
	RoleAdmin     Role = "admin"
	RoleReception Role = "reception"
)

// DefaultRole is assigned when a user has no role record or a PIN carries
// a value outside the fixed set.
const DefaultRole = RoleWaiter

// Roles lists the fixed role set in display order.
var Roles = []Role{RoleWaiter, RoleCook, RoleAdmin, RoleReception}

var roleLabels = map[Role]string{
	RoleWaiter:    "Waiter",
	RoleCook:      "Cook",
	RoleAdmin:     "Administrator",
	RoleReception: "Reception",
}

// ParseRole normalizes s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roleLabels[r]
	return r, ok
}

// RoleOrDefault returns the role named by s, or DefaultRole when s is not
// part of the fixed set.
func RoleOrDefault(s string) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return DefaultRole
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the human readable name of the role.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}
