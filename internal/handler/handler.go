// Package handler holds the HTTP handlers.  Routes are registered with
// Any so that the role guard answers first; each handler then checks the
// method itself and answers 405 for the others.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

// requestTimeout bounds the store calls of a single request.
const requestTimeout = 5 * time.Second

// kitchenDataPath is the cached JSON view of the kitchen queue.
const kitchenDataPath = "/kitchen-queue-data/"

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	Accounts *service.AccountService
	Orders   *service.OrderService
	Tables   *service.TableService
	Reports  *service.ReportService
	Cache    *middleware.ResponseCache

	BackOfficeURL string
	CookieSecure  bool
	Location      *time.Location
	Log           *log.Logger
}

// reqCtx bounds the store calls of one request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor is the signed in user as the services see it.
func actor(c echo.Context) service.Actor {
	id, _ := middleware.UserID(c)
	return service.Actor{ID: id, Username: middleware.Username(c), Role: middleware.Role(c)}
}

// page fills the layout fields and pops the pending flash.
func (h *Handler) page(c echo.Context, title string, data any) web.Page {
	return web.Page{
		Title:    title,
		Username: middleware.Username(c),
		Role:     middleware.Role(c),
		Flash:    web.PopFlash(c),
		Data:     data,
	}
}

// methodNotAllowed goes through HTTPErrorHandler so page routes answer
// with HTML and API routes with JSON.
func methodNotAllowed(c echo.Context) error {
	return echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
}

// pathID parses a numeric path parameter.  ok is false for anything that
// is not a positive integer.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// apiError maps service errors to a status code and a JSON error body.
// Unclassified errors are logged and reported without detail.
func (h *Handler) apiError(c echo.Context, err error) error {
	status, msg := h.classify(c, err)
	return c.JSON(status, echo.Map{"error": msg})
}

// classify maps an error to a status and the message the user may see.
func (h *Handler) classify(c echo.Context, err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidPIN),
		errors.Is(err, service.ErrUserExists):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusForbidden, "not authorized"
	}
	h.logger(c).Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	return http.StatusInternalServerError, "internal server error"
}

func (h *Handler) logger(c echo.Context) echo.Logger {
	if h.Log != nil {
		return h.Log
	}
	return c.Logger()
}

// purgeKitchen drops the cached kitchen JSON after an order changed.
func (h *Handler) purgeKitchen(c echo.Context) {
	if err := h.Cache.Purge(c.Request().Context(), kitchenDataPath); err != nil {
		h.logger(c).Warnf("purge kitchen cache: %v", err)
	}
}

func (h *Handler) loc() *time.Location {
	if h.Location == nil {
		return time.Local
	}
	return h.Location
}
