package router

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/model"
)

// snapshot renders everything a request could change.
func (a *app) snapshot(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	tables, _ := a.store.ListTables(ctx)
	items, _ := a.store.ListMenuItems(ctx, false)
	users, _ := a.store.ListUsers(ctx)
	pins, _ := a.store.ListPINs(ctx)
	return fmt.Sprintf("%v|%v|%v|%v|%v|%d", tables, items, a.store.Orders(), users, pins, len(a.store.AuditEntries()))
}

func TestEveryGuardedRouteRejectsOtherRoles(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(4, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)
	form := url.Values{"item_id_0": {itoa(soup.ID)}}.Encode()
	if rec := a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm); rec.Code != http.StatusFound {
		t.Fatalf("setup order = %d", rec.Code)
	}
	order := itoa(a.store.Orders()[0].ID)
	target := itoa(a.users[model.RoleWaiter].ID)

	waiter := []model.Role{model.RoleWaiter, model.RoleAdmin}
	kitchen := []model.Role{model.RoleCook, model.RoleAdmin}
	admin := []model.Role{model.RoleAdmin}
	reception := []model.Role{model.RoleReception}

	routes := []struct {
		method, path, body, ctype string
		mode                      middleware.Mode
		allowed                   []model.Role
	}{
		{http.MethodGet, "/select-table/", "", "", middleware.Page, waiter},
		{http.MethodGet, "/menu/" + itoa(table.ID) + "/", "", "", middleware.Page, waiter},
		{http.MethodPost, "/send-order/" + itoa(table.ID) + "/", form, echo.MIMEApplicationForm, middleware.API, waiter},
		{http.MethodPost, "/toggle-table/" + itoa(table.ID) + "/", "", "", middleware.API, waiter},
		{http.MethodPost, "/deliver-order/" + order + "/", "", "", middleware.API, waiter},
		{http.MethodGet, "/kitchen-queue/", "", "", middleware.Page, kitchen},
		{http.MethodGet, "/kitchen-queue-data/", "", "", middleware.API, kitchen},
		{http.MethodPost, "/update-order-status/" + order + "/", `{"status":"preparing"}`, echo.MIMEApplicationJSON, middleware.API, kitchen},
		{http.MethodPost, "/admin-users/", "role=cook", echo.MIMEApplicationForm, middleware.Page, admin},
		{http.MethodPost, "/admin-users/" + target + "/role/", "role=admin", echo.MIMEApplicationForm, middleware.Page, admin},
		{http.MethodPost, "/toggle-menu-item/" + itoa(soup.ID) + "/", "", "", middleware.API, admin},
		{http.MethodGet, "/audit-log/", "", "", middleware.Page, admin},
		{http.MethodGet, "/admin-users/", "", "", middleware.Page, admin},
		{http.MethodGet, "/reception/", "", "", middleware.Page, reception},
		{http.MethodGet, "/download-daily-report/", "", "", middleware.Page, reception},
	}

	before := a.snapshot(t)
	for _, r := range routes {
		allowed := map[model.Role]bool{}
		for _, role := range r.allowed {
			allowed[role] = true
		}
		for _, role := range model.Roles {
			if allowed[role] {
				continue
			}
			rec := a.do(t, role, r.method, r.path, r.body, r.ctype)
			if r.mode == middleware.API {
				if rec.Code != http.StatusForbidden || errorBody(t, rec) != "not authorized" {
					t.Errorf("%s %s as %s = %d %s", r.method, r.path, role, rec.Code, rec.Body.String())
				}
			} else if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
				t.Errorf("%s %s as %s = %d %q", r.method, r.path, role, rec.Code, rec.Header().Get("Location"))
			}
			if after := a.snapshot(t); after != before {
				t.Fatalf("%s %s as %s changed state", r.method, r.path, role)
			}
		}
	}
}

func TestRoleChangeAppliesToOpenSession(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(5, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)
	waiter := a.users[model.RoleWaiter]

	rec := a.do(t, model.RoleAdmin, http.MethodPost, "/admin-users/"+itoa(waiter.ID)+"/role/", "role=cook", echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound {
		t.Fatalf("set role = %d", rec.Code)
	}
	audit := len(a.store.AuditEntries())

	// the cookie below was signed with the old waiter role
	form := url.Values{"item_id_0": {itoa(soup.ID)}}.Encode()
	rec = a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("send-order after demotion = %d %s", rec.Code, rec.Body.String())
	}
	if len(a.store.Orders()) != 0 || len(a.store.AuditEntries()) != audit {
		t.Fatalf("demoted session changed state")
	}

	rec = a.do(t, model.RoleWaiter, http.MethodGet, "/kitchen-queue-data/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("kitchen data after promotion = %d", rec.Code)
	}
	rec = a.do(t, model.RoleWaiter, http.MethodGet, "/", "", "")
	if rec.Header().Get("Location") != "/kitchen-queue/" {
		t.Fatalf("landing after role change = %q", rec.Header().Get("Location"))
	}
}

func TestPageErrorsRenderBanner(t *testing.T) {
	a := newApp(t)

	cases := []struct {
		method, path string
		code         int
		msg          string
	}{
		{http.MethodGet, "/menu/9999/", http.StatusNotFound, "table not found"},
		{http.MethodGet, "/menu/abc/", http.StatusNotFound, "table not found"},
		{http.MethodPost, "/select-table/", http.StatusMethodNotAllowed, "method not allowed"},
	}
	for _, tc := range cases {
		rec := a.do(t, model.RoleWaiter, tc.method, tc.path, "", "")
		if rec.Code != tc.code {
			t.Fatalf("%s %s = %d, want %d", tc.method, tc.path, rec.Code, tc.code)
		}
		if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, echo.MIMETextHTML) {
			t.Fatalf("%s %s content type = %q", tc.method, tc.path, ct)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `class="flash error"`) || !strings.Contains(body, tc.msg) {
			t.Fatalf("%s %s body lacks banner %q: %s", tc.method, tc.path, tc.msg, body)
		}
	}

	// API routes keep the JSON body
	rec := a.do(t, model.RoleWaiter, http.MethodGet, "/toggle-table/1/", "", "")
	if rec.Code != http.StatusMethodNotAllowed || errorBody(t, rec) != "method not allowed" {
		t.Fatalf("api 405 = %d %s", rec.Code, rec.Body.String())
	}
}
