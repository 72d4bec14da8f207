package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/handler"
	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/model"
)

// Route guards are attached per route rather than through a prefix-less
// echo.Group, whose middleware would also claim unmatched paths.

// RegisterWaiter registers the table, menu and ordering routes for
// waiters and admins.
func RegisterWaiter(e *echo.Echo, h *handler.Handler) {
	page := middleware.RequireRole(middleware.Page, model.RoleWaiter, model.RoleAdmin)
	api := middleware.RequireRole(middleware.API, model.RoleWaiter, model.RoleAdmin)

	e.Any("/select-table/", h.SelectTable, page)
	e.Any("/menu/:table_id/", h.Menu, page)
	e.Any("/send-order/:table_id/", h.SendOrder, api)
	e.Any("/toggle-table/:table_id/", h.ToggleTable, api)
	e.Any("/deliver-order/:order_id/", h.DeliverOrder, api)
}

// RegisterKitchen registers the kitchen queue routes for cooks and admins.
// The JSON queue is cached behind the role guard.
func RegisterKitchen(e *echo.Echo, h *handler.Handler) {
	page := middleware.RequireRole(middleware.Page, model.RoleCook, model.RoleAdmin)
	api := middleware.RequireRole(middleware.API, model.RoleCook, model.RoleAdmin)

	e.Any("/kitchen-queue/", h.KitchenQueue, page)
	e.Any("/kitchen-queue-data/", h.KitchenQueueData, api, h.Cache.Middleware())
	e.Any("/update-order-status/:order_id/", h.UpdateOrderStatus, api)
}

// RegisterAdmin registers user administration, menu availability and the
// audit log.
func RegisterAdmin(e *echo.Echo, h *handler.Handler) {
	page := middleware.RequireRole(middleware.Page, model.RoleAdmin)

	e.Any("/admin-users/", h.AdminUsers, page)
	e.Any("/admin-users/:user_id/role/", h.SetUserRole, page)
	e.Any("/audit-log/", h.AuditLog, page)
	e.Any("/toggle-menu-item/:item_id/", h.ToggleMenuItem, middleware.RequireRole(middleware.API, model.RoleAdmin))
}

// RegisterReception registers the reception dashboard and report export.
func RegisterReception(e *echo.Echo, h *handler.Handler) {
	page := middleware.RequireRole(middleware.Page, model.RoleReception)

	e.Any("/reception/", h.Reception, page)
	e.Any("/download-daily-report/", h.DownloadDailyReport, page)
}

// Register installs every route on e.
func Register(e *echo.Echo, h *handler.Handler, deps Deps) {
	RegisterRoutes(e)
	RegisterAuth(e, h, deps.RateLimit, deps.Redis)
	RegisterWaiter(e, h)
	RegisterKitchen(e, h)
	RegisterAdmin(e, h)
	RegisterReception(e, h)
}
