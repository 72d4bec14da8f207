package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/service"
)

type loginForm struct {
	Username string
	Next     string
	Error    string
}

type registerForm struct {
	Username string
	PIN      string
	Error    string
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// Login renders the sign in form and signs the user in on POST.
func (h *Handler) Login(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		if _, ok := middleware.UserID(c); ok {
			return c.Redirect(http.StatusFound, "/")
		}
		return c.Render(http.StatusOK, "login", h.page(c, "Sign in", loginForm{Next: c.QueryParam("next")}))
	case http.MethodPost:
	default:
		return methodNotAllowed(c)
	}

	form := loginForm{Username: strings.TrimSpace(c.FormValue("username")), Next: c.FormValue("next")}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Accounts.Login(ctx, form.Username, c.FormValue("password"))
	if err != nil {
		status := http.StatusOK
		switch {
		case errors.Is(err, service.ErrValidation):
			form.Error = err.Error()
		case errors.Is(err, service.ErrInvalidCredentials):
			form.Error = "invalid username or password"
		default:
			status, form.Error = h.classify(c, err)
		}
		return c.Render(status, "login", h.page(c, "Sign in", form))
	}
	middleware.SetSessionCookies(c, s, h.CookieSecure)
	return c.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout revokes the refresh token and clears the session cookies.
func (h *Handler) Logout(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	if ck, err := c.Cookie(middleware.RefreshCookie); err == nil {
		ctx, cancel := reqCtx(c)
		defer cancel()
		if err := h.Accounts.Logout(ctx, ck.Value); err != nil {
			h.logger(c).Warnf("logout: %v", err)
		}
	}
	middleware.ClearSessionCookies(c)
	return c.Redirect(http.StatusFound, "/login/")
}

// Register renders the PIN registration form and creates the account on
// POST.  A successful registration signs the user in.
func (h *Handler) Register(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return c.Render(http.StatusOK, "register", h.page(c, "Register", registerForm{}))
	case http.MethodPost:
	default:
		return methodNotAllowed(c)
	}

	form := registerForm{
		Username: strings.TrimSpace(c.FormValue("username")),
		PIN:      strings.TrimSpace(c.FormValue("pin")),
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Accounts.Register(ctx, form.Username, c.FormValue("password"), form.PIN)
	if err != nil {
		status := http.StatusOK
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidPIN), errors.Is(err, service.ErrUserExists):
			form.Error = err.Error()
		default:
			status, form.Error = h.classify(c, err)
		}
		return c.Render(status, "register", h.page(c, "Register", form))
	}
	middleware.SetSessionCookies(c, s, h.CookieSecure)
	return c.Redirect(http.StatusFound, "/")
}

// Home sends the user to the start page of their role.
func (h *Handler) Home(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	d := service.Landing(middleware.Role(c), middleware.IsSuperuser(c), h.BackOfficeURL)
	if !d.Recognized {
		return c.Render(http.StatusOK, "home", h.page(c, "Home", struct{ Message string }{"role not recognized"}))
	}
	return c.Redirect(http.StatusFound, d.Path)
}
