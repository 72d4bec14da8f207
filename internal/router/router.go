// Package router wires the handlers to their paths and role guards.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-orders/internal/config"
	"github.com/iliyamo/restaurant-orders/internal/handler"
	"github.com/iliyamo/restaurant-orders/internal/middleware"
)

// Deps carries what the route guards need besides the handler.
type Deps struct {
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// RegisterRoutes registers routes that need no session: the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers sign in, sign out, registration and the role
// dispatching home page.  Form posts to /login/ and /register/ are rate
// limited when Redis is available.
func RegisterAuth(e *echo.Echo, h *handler.Handler, rl config.RateLimitConfig, rdb *redis.Client) {
	limit := middleware.RateLimit(rl, rdb)
	e.Any("/login/", h.Login, limit)
	e.Any("/register/", h.Register, limit)
	e.Any("/logout/", h.Logout, middleware.RequireRole(middleware.Page))
	e.Any("/", h.Home, middleware.RequireRole(middleware.Page))
}

// NewServer builds the echo instance: renderer, error handler, request
// ids, request logging, panic recovery, the session resolver and every
// route.
func NewServer(h *handler.Handler, r echo.Renderer, sess middleware.SessionConfig, deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = r
	e.HTTPErrorHandler = h.HTTPErrorHandler
	if h.Log != nil {
		e.Logger = h.Log
	}

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			l := c.Logger()
			if v.Error != nil {
				l.Warnj(log.JSON{"id": v.RequestID, "method": v.Method, "uri": v.URI, "status": v.Status, "latency": v.Latency.String(), "error": v.Error.Error()})
				return nil
			}
			l.Infoj(log.JSON{"id": v.RequestID, "method": v.Method, "uri": v.URI, "status": v.Status, "latency": v.Latency.String()})
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(middleware.Session(sess))

	Register(e, h, deps)
	return e
}
