package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/utils"
)

// Cookie names carrying the session.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Refresher rotates a refresh token into a new session.  It is satisfied
// by *service.AccountService.
type Refresher interface {
	Refresh(ctx context.Context, raw string) (service.Session, error)
}

// RoleResolver looks up the role a user holds at request time.  It is
// satisfied by *service.AccountService.
type RoleResolver interface {
	CurrentRole(ctx context.Context, userID uint64) (model.Role, error)
}

// SessionConfig configures Session.  When Roles is set the role claim of
// the access token is replaced by the stored role on every request, so a
// role change applies to sessions that are already open.
type SessionConfig struct {
	Secret    string
	Refresher Refresher
	Roles     RoleResolver
	Secure    bool
	Now       func() time.Time
	Log       *log.Logger
}

// Session resolves the caller from the session cookies.  A valid access
// token sets the identity directly.  Otherwise a live refresh token is
// rotated and fresh cookies are written.  Requests without a usable
// session pass through anonymously; RequireRole decides what they may do.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
				claims, err := utils.ParseAccessToken(cfg.Secret, ck.Value, now())
				if err == nil {
					id, _ := claims.UserID()
					role := model.Role(claims.Role)
					if cfg.Roles != nil {
						current, err := cfg.Roles.CurrentRole(c.Request().Context(), id)
						switch {
						case errors.Is(err, service.ErrUnauthenticated):
							ClearSessionCookies(c)
							return next(c)
						case err != nil:
							// anonymous for this request only; the guard rejects it
							if cfg.Log != nil {
								cfg.Log.Warnf("session role lookup: %v", err)
							}
							return next(c)
						}
						role = current
					}
					setIdentity(c, id, claims.Username, role, claims.Superuser)
					return next(c)
				}
			}
			if cfg.Refresher == nil {
				return next(c)
			}
			rc, err := c.Cookie(RefreshCookie)
			if err != nil || rc.Value == "" {
				return next(c)
			}
			s, err := cfg.Refresher.Refresh(c.Request().Context(), rc.Value)
			switch {
			case err == nil:
				SetSessionCookies(c, s, cfg.Secure)
				setIdentity(c, s.User.ID, s.User.Username, s.User.Role, s.User.IsSuperuser)
			case errors.Is(err, service.ErrUnauthenticated):
				ClearSessionCookies(c)
			default:
				if cfg.Log != nil {
					cfg.Log.Warnf("session refresh: %v", err)
				}
			}
			return next(c)
		}
	}
}

// SetSessionCookies writes both session cookies.
func SetSessionCookies(c echo.Context, s service.Session, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AccessCookie,
		Value:    s.Access.Token,
		Path:     "/",
		Expires:  s.Refresh.Exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookie,
		Value:    s.Refresh.Raw,
		Path:     "/",
		Expires:  s.Refresh.Exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both session cookies.
func ClearSessionCookies(c echo.Context) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
}
