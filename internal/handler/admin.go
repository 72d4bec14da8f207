package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

type adminPage struct {
	Users  []model.User
	PINs   []model.RegistrationPIN
	Counts service.AdminCounts
	Roles  []model.Role
}

// AdminUsers lists users, PINs and the summary counts on GET and issues a
// registration PIN on POST.
func (h *Handler) AdminUsers(c echo.Context) error {
	switch c.Request().Method {
	case http.MethodGet:
		return h.adminUsersPage(c)
	case http.MethodPost:
	default:
		return methodNotAllowed(c)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	pin, err := h.Accounts.IssuePIN(ctx, actor(c), c.FormValue("role"))
	switch {
	case err == nil:
		web.SetFlash(c, web.FlashSuccess, fmt.Sprintf("PIN generated: %s for role %s", pin.Code, pin.Role))
	case errors.Is(err, service.ErrValidation):
		web.SetFlash(c, web.FlashError, err.Error())
	default:
		h.logger(c).Errorf("issue pin: %v", err)
		web.SetFlash(c, web.FlashError, "could not generate a PIN, try again")
	}
	return c.Redirect(http.StatusFound, "/admin-users/")
}

func (h *Handler) adminUsersPage(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	dir, err := h.Accounts.Directory(ctx)
	if err != nil {
		return err
	}
	counts, err := h.Reports.Counts(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "admin_users", h.page(c, "Administration", adminPage{
		Users:  dir.Users,
		PINs:   dir.PINs,
		Counts: counts,
		Roles:  model.Roles,
	}))
}

// SetUserRole changes the role of one user.
func (h *Handler) SetUserRole(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "user_id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Accounts.SetRole(ctx, actor(c), id, c.FormValue("role"))
	switch {
	case err == nil:
		web.SetFlash(c, web.FlashSuccess, "Role updated")
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrNotFound):
		web.SetFlash(c, web.FlashError, err.Error())
	default:
		return err
	}
	return c.Redirect(http.StatusFound, "/admin-users/")
}

// ToggleMenuItem flips whether a menu item can be ordered.
func (h *Handler) ToggleMenuItem(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "item_id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	m, err := h.Tables.ToggleMenuItem(ctx, actor(c), id)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "available": m.Available})
}

// AuditLog lists every audit entry, newest first.
func (h *Handler) AuditLog(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	entries, err := h.Reports.AuditTrail(ctx, 0)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "audit_log", h.page(c, "Audit log", entries))
}
