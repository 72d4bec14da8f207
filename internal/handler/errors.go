package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

// HTTPErrorHandler replaces echo's default.  Errors on page routes render
// the error page with the message as a banner; everything else leaves as
// {"error": "..."}.  Service errors are classified the same way on both;
// echo's own errors keep their status.
func (h *Handler) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	status, msg := 0, ""
	if errors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		default:
			msg = http.StatusText(he.Code)
		}
		if status == http.StatusMethodNotAllowed {
			msg = "method not allowed"
		}
		if status >= http.StatusInternalServerError {
			h.logger(c).Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
			msg = "internal server error"
		}
	} else {
		status, msg = h.classify(c, err)
	}

	switch {
	case c.Request().Method == http.MethodHead:
		err = c.NoContent(status)
	case middleware.IsPage(c) && c.Echo().Renderer != nil:
		err = h.renderError(c, status, msg)
	default:
		err = c.JSON(status, echo.Map{"error": msg})
	}
	if err != nil {
		h.logger(c).Error(err)
	}
}

type errorPage struct {
	Status int
}

// renderError shows msg in the layout's error banner.  If the page itself
// cannot be rendered the JSON body is sent instead.
func (h *Handler) renderError(c echo.Context, status int, msg string) error {
	p := web.Page{
		Title:    http.StatusText(status),
		Username: middleware.Username(c),
		Role:     middleware.Role(c),
		Flash:    web.Flash{Kind: web.FlashError, Message: msg},
		Data:     errorPage{Status: status},
	}
	if err := c.Render(status, "error", p); err != nil {
		h.logger(c).Errorf("render error page: %v", err)
		return c.JSON(status, echo.Map{"error": msg})
	}
	return nil
}
