package middleware

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// Mode selects how RequireRole answers rejected requests.
type Mode int

const (
	// Page requests are redirected: to the login form when anonymous and
	// to "/" when the role does not match.
	Page Mode = iota
	// API requests get a JSON error with 401 or 403.
	API
)

// RequireRole lets the request through only when the caller is signed in
// and holds one of roles.  With no roles any signed in user passes.  The
// check runs before the handler, so a rejected request does no work.
func RequireRole(mode Mode, roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxMode, mode)
			if _, ok := UserID(c); !ok {
				if mode == API {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
				}
				return c.Redirect(http.StatusFound, "/login/?next="+url.QueryEscape(c.Request().URL.RequestURI()))
			}
			if len(allowed) > 0 && !allowed[Role(c)] {
				if mode == API {
					return c.JSON(http.StatusForbidden, echo.Map{"error": "not authorized"})
				}
				return c.Redirect(http.StatusFound, "/")
			}
			return next(c)
		}
	}
}

const ctxMode = "guard_mode"

// IsPage reports whether the route was guarded in Page mode.  Errors on
// such routes are shown as an HTML page rather than JSON.
func IsPage(c echo.Context) bool {
	m, ok := c.Get(ctxMode).(Mode)
	return ok && m == Page
}
