package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// Context keys set by Session for authenticated requests.
const (
	ctxUserID    = "user_id"
	ctxUsername  = "username"
	ctxRole      = "role"
	ctxSuperuser = "superuser"
)

func setIdentity(c echo.Context, id uint64, username string, role model.Role, superuser bool) {
	c.Set(ctxUserID, id)
	c.Set(ctxUsername, username)
	c.Set(ctxRole, role)
	c.Set(ctxSuperuser, superuser)
}

// UserID returns the authenticated user's id.  ok is false for anonymous
// requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// Username returns the authenticated user's name or "".
func Username(c echo.Context) string {
	s, _ := c.Get(ctxUsername).(string)
	return s
}

// Role returns the authenticated user's role or "".
func Role(c echo.Context) model.Role {
	r, _ := c.Get(ctxRole).(model.Role)
	return r
}

// IsSuperuser reports whether the authenticated user has back-office
// access.
func IsSuperuser(c echo.Context) bool {
	b, _ := c.Get(ctxSuperuser).(bool)
	return b
}

// clientKey identifies the caller for rate limiting: the user id when
// signed in, "anon" otherwise.
func clientKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
