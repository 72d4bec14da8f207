package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/restaurant-orders/internal/handler"
	"github.com/iliyamo/restaurant-orders/internal/middleware"
	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/testutil"
	"github.com/iliyamo/restaurant-orders/internal/utils"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

const secret = "router-test-secret"

var noon = time.Date(2024, 3, 7, 12, 0, 0, 0, time.UTC)

type app struct {
	e     *echo.Echo
	store *testutil.MemStore
	clock *testutil.Clock
	users map[model.Role]model.User
}

func newApp(t *testing.T) *app {
	t.Helper()
	st := testutil.NewMemStore()
	clk := testutil.NewClock(noon)
	lg := testutil.Logger()
	accounts := &service.AccountService{
		Users: st, PINs: st, Tokens: st,
		Secret: secret, AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour,
		BcryptCost: 4, Now: clk.Now, Log: lg,
	}
	h := &handler.Handler{
		Accounts:      accounts,
		Orders:        &service.OrderService{Tables: st, Menu: st, Orders: st, Events: &testutil.Publisher{}, Now: clk.Now, Log: lg},
		Tables:        &service.TableService{Tables: st, Menu: st, Now: clk.Now},
		Reports:       &service.ReportService{Orders: st, Tables: st, Menu: st, Users: st, Audit: st, Location: time.UTC, Now: clk.Now},
		BackOfficeURL: "/admin/",
		Location:      time.UTC,
		Log:           lg,
	}
	r, err := web.NewRenderer(time.UTC)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	e := NewServer(h, r, middleware.SessionConfig{Secret: secret, Refresher: accounts, Roles: accounts, Now: clk.Now, Log: lg}, Deps{})

	a := &app{e: e, store: st, clock: clk, users: map[model.Role]model.User{}}
	for _, role := range model.Roles {
		a.users[role] = st.AddUser(string(role)+"1", "", role, false)
	}
	return a
}

func (a *app) do(t *testing.T, role model.Role, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if role != "" {
		u := a.users[role]
		at, err := utils.NewAccessToken(secret, u.ID, u.Username, string(role), false, a.clock.Now(), 15*time.Minute)
		if err != nil {
			t.Fatal(err)
		}
		req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: at.Token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("body %q is not JSON: %v", rec.Body.String(), err)
	}
	s, _ := m["error"].(string)
	return s
}

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, "", http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("missing request id")
	}
}

func TestHomeDispatchesByRole(t *testing.T) {
	a := newApp(t)
	want := map[model.Role]string{
		model.RoleWaiter:    "/select-table/",
		model.RoleCook:      "/kitchen-queue/",
		model.RoleAdmin:     "/admin-users/",
		model.RoleReception: "/reception/",
	}
	for role, path := range want {
		rec := a.do(t, role, http.MethodGet, "/", "", "")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != path {
			t.Fatalf("%s home = %d %q, want %s", role, rec.Code, rec.Header().Get("Location"), path)
		}
	}
	rec := a.do(t, "", http.MethodGet, "/", "", "")
	if rec.Code != http.StatusFound || !strings.HasPrefix(rec.Header().Get("Location"), "/login/") {
		t.Fatalf("anonymous home = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestUnknownRoleRendersHome(t *testing.T) {
	a := newApp(t)
	u := a.store.AddUser("odd", "", "sommelier", false)
	a.users["sommelier"] = u
	rec := a.do(t, "sommelier", http.MethodGet, "/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "role not recognized") {
		t.Fatalf("home = %d %s", rec.Code, rec.Body.String())
	}
}

func TestSendOrderAndRoleGuard(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(5, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)
	bread := a.store.AddMenuItem("Bread", "1.25", true)
	form := url.Values{
		"item_id_0":   {itoa(soup.ID)},
		"quantity_0":  {"2"},
		"item_id_1":   {itoa(bread.ID)},
		"notes_1":     {"warm"},
		"order_notes": {"birthday"},
	}.Encode()
	target := "/send-order/" + itoa(table.ID) + "/"

	rec := a.do(t, model.RoleCook, http.MethodPost, target, form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusForbidden || errorBody(t, rec) != "not authorized" {
		t.Fatalf("cook send-order = %d %s", rec.Code, rec.Body.String())
	}
	if len(a.store.Orders()) != 0 || len(a.store.AuditEntries()) != 0 {
		t.Fatalf("rejected request changed state")
	}

	rec = a.do(t, model.RoleWaiter, http.MethodGet, target, "", "")
	if rec.Code != http.StatusMethodNotAllowed || errorBody(t, rec) != "method not allowed" {
		t.Fatalf("GET send-order = %d %s", rec.Code, rec.Body.String())
	}

	rec = a.do(t, model.RoleWaiter, http.MethodPost, target, form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/select-table/" {
		t.Fatalf("send-order = %d %s", rec.Code, rec.Body.String())
	}
	orders := a.store.Orders()
	if len(orders) != 1 || orders[0].Notes != "birthday" {
		t.Fatalf("orders = %+v", orders)
	}
	items := a.store.ItemsOf(orders[0].ID)
	if len(items) != 2 || items[0].Quantity != 2 || items[1].Quantity != 1 || items[1].Notes != "warm" {
		t.Fatalf("items = %+v", items)
	}
	if tb, _ := a.store.GetTable(context.Background(), table.ID); tb.IsAvailable {
		t.Fatalf("table still available")
	}
}

func TestSendOrderErrors(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(1, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)

	form := url.Values{"item_id_0": {itoa(soup.ID)}, "quantity_0": {"0"}}.Encode()
	rec := a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec) != "no items in order" {
		t.Fatalf("zero quantity = %d %s", rec.Code, rec.Body.String())
	}

	form = url.Values{"item_id_0": {itoa(soup.ID)}}.Encode()
	rec = a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/9999/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown table = %d %s", rec.Code, rec.Body.String())
	}

	form = url.Values{"item_id_0": {"9999"}}.Encode()
	rec = a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown item = %d %s", rec.Code, rec.Body.String())
	}
	if len(a.store.Orders()) != 0 {
		t.Fatalf("orders created on error")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(1, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)
	form := url.Values{"item_id_0": {itoa(soup.ID)}}.Encode()
	if rec := a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm); rec.Code != http.StatusFound {
		t.Fatalf("send-order = %d", rec.Code)
	}
	id := itoa(a.store.Orders()[0].ID)
	target := "/update-order-status/" + id + "/"

	rec := a.do(t, model.RoleCook, http.MethodPost, target, `{"status":`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec) != "invalid JSON" {
		t.Fatalf("bad json = %d %s", rec.Code, rec.Body.String())
	}
	rec = a.do(t, model.RoleCook, http.MethodPost, target, `{"status":"delivered"}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusBadRequest || errorBody(t, rec) != "invalid status" {
		t.Fatalf("delivered = %d %s", rec.Code, rec.Body.String())
	}
	for i := 0; i < 2; i++ {
		rec = a.do(t, model.RoleCook, http.MethodPost, target, `{"status":"ready"}`, echo.MIMEApplicationJSON)
		if rec.Code != http.StatusOK {
			t.Fatalf("ready #%d = %d %s", i+1, rec.Code, rec.Body.String())
		}
	}
	rec = a.do(t, model.RoleCook, http.MethodPost, "/update-order-status/9999/", `{"status":"ready"}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown order = %d", rec.Code)
	}
	rec = a.do(t, model.RoleWaiter, http.MethodPost, target, `{"status":"ready"}`, echo.MIMEApplicationJSON)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("waiter update = %d", rec.Code)
	}

	rec = a.do(t, model.RoleWaiter, http.MethodPost, "/deliver-order/"+id+"/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("deliver = %d %s", rec.Code, rec.Body.String())
	}

	var n int
	for _, e := range a.store.AuditEntries() {
		if e.Action == "Change order status to ready" {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("status audit entries = %d, want 2", n)
	}
}

func TestKitchenQueueData(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(8, true)
	soup := a.store.AddMenuItem("Soup", "4.50", true)
	form := url.Values{
		"item_id_0": {itoa(soup.ID)}, "quantity_0": {"1"}, "notes_0": {"no salt"},
		"item_id_1": {itoa(soup.ID)}, "quantity_1": {"2"}, "notes_1": {"no salt "},
	}.Encode()
	a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm)

	rec := a.do(t, model.RoleCook, http.MethodPost, "/kitchen-queue-data/", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST kitchen data = %d", rec.Code)
	}
	rec = a.do(t, model.RoleCook, http.MethodGet, "/kitchen-queue-data/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("kitchen data = %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Orders []struct {
			ID            uint64 `json:"id"`
			TableNumber   int    `json:"table_number"`
			CreatedAtDate string `json:"created_at_date"`
			CreatedAtTime string `json:"created_at_time"`
			Status        string `json:"status"`
			StatusDisplay string `json:"status_display"`
			Items         []struct {
				MenuItemName string `json:"menu_item_name"`
				Quantity     int    `json:"quantity"`
				Notes        string `json:"notes"`
			} `json:"items"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Orders) != 1 {
		t.Fatalf("orders = %+v", body.Orders)
	}
	o := body.Orders[0]
	if o.TableNumber != 8 || o.CreatedAtDate != "07/03/2024" || o.CreatedAtTime != "12:00" ||
		o.Status != "unclaimed" || o.StatusDisplay != "Unclaimed" {
		t.Fatalf("order = %+v", o)
	}
	if len(o.Items) != 1 || o.Items[0].Quantity != 3 || o.Items[0].Notes != "no salt" {
		t.Fatalf("items = %+v", o.Items)
	}

	page := a.do(t, model.RoleWaiter, http.MethodGet, "/kitchen-queue/", "", "")
	if page.Code != http.StatusFound || page.Header().Get("Location") != "/" {
		t.Fatalf("waiter kitchen page = %d %q", page.Code, page.Header().Get("Location"))
	}
}

func TestToggleTableEndpoint(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(3, true)
	target := "/toggle-table/" + itoa(table.ID) + "/"

	rec := a.do(t, model.RoleWaiter, http.MethodGet, target, "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET toggle = %d", rec.Code)
	}
	rec = a.do(t, model.RoleWaiter, http.MethodPost, target, "", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"is_available":false,"success":true}` {
		t.Fatalf("toggle = %d %s", rec.Code, rec.Body.String())
	}
	rec = a.do(t, model.RoleWaiter, http.MethodPost, "/toggle-table/9999/", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown table = %d", rec.Code)
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	a := newApp(t)
	a.store.AddPIN("JOINCOOK", "cook", 0, a.users[model.RoleAdmin].ID)

	form := url.Values{"username": {"newcook"}, "password": {"pw"}, "pin": {""}}.Encode()
	rec := a.do(t, "", http.MethodPost, "/register/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "all fields are required") {
		t.Fatalf("blank pin = %d", rec.Code)
	}
	form = url.Values{"username": {"newcook"}, "password": {"pw"}, "pin": {"NOPE0000"}}.Encode()
	rec = a.do(t, "", http.MethodPost, "/register/", form, echo.MIMEApplicationForm)
	if !strings.Contains(rec.Body.String(), "invalid or exhausted PIN") {
		t.Fatalf("bad pin body = %s", rec.Body.String())
	}
	form = url.Values{"username": {"newcook"}, "password": {"pw"}, "pin": {"JOINCOOK"}}.Encode()
	rec = a.do(t, "", http.MethodPost, "/register/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("register = %d %s", rec.Code, rec.Body.String())
	}
	var access *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessCookie {
			access = ck
		}
	}
	if access == nil {
		t.Fatalf("no session cookie after registration")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(access)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	if rec.Header().Get("Location") != "/kitchen-queue/" {
		t.Fatalf("new cook landing = %q", rec.Header().Get("Location"))
	}

	form = url.Values{"username": {"newcook"}, "password": {"wrong"}}.Encode()
	rec = a.do(t, "", http.MethodPost, "/login/", form, echo.MIMEApplicationForm)
	if !strings.Contains(rec.Body.String(), "invalid username or password") {
		t.Fatalf("bad login body = %s", rec.Body.String())
	}
	form = url.Values{"username": {"newcook"}, "password": {"pw"}, "next": {"//evil.example"}}.Encode()
	rec = a.do(t, "", http.MethodPost, "/login/", form, echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("login = %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAdminIssuesPIN(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, model.RoleAdmin, http.MethodPost, "/admin-users/", url.Values{"role": {"chef"}}.Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin-users/" {
		t.Fatalf("invalid role = %d", rec.Code)
	}
	if len(a.store.AuditEntries()) != 0 {
		t.Fatalf("audit written for invalid role")
	}
	rec = a.do(t, model.RoleAdmin, http.MethodPost, "/admin-users/", url.Values{"role": {"reception"}}.Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound {
		t.Fatalf("issue pin = %d", rec.Code)
	}
	audit := a.store.AuditEntries()
	if len(audit) != 1 || audit[0].Action != "Generate registration PIN" {
		t.Fatalf("audit = %+v", audit)
	}
	rec = a.do(t, model.RoleAdmin, http.MethodGet, "/admin-users/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "reception") {
		t.Fatalf("admin page = %d", rec.Code)
	}
	rec = a.do(t, model.RoleReception, http.MethodPost, "/admin-users/", url.Values{"role": {"admin"}}.Encode(), echo.MIMEApplicationForm)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("non-admin pin = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(a.store.AuditEntries()) != 1 {
		t.Fatalf("non-admin request wrote audit")
	}
}

func TestDailyReportDownload(t *testing.T) {
	a := newApp(t)
	table := a.store.AddTable(2, true)
	tea := a.store.AddMenuItem("Tea", "2.25", true)
	form := url.Values{"item_id_0": {itoa(tea.ID)}, "quantity_0": {"2"}}.Encode()
	a.do(t, model.RoleWaiter, http.MethodPost, "/send-order/"+itoa(table.ID)+"/", form, echo.MIMEApplicationForm)

	rec := a.do(t, model.RoleReception, http.MethodGet, "/download-daily-report/", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("download = %d %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); got != "attachment; filename=daily_report_2024-03-07.xlsx" {
		t.Fatalf("Content-Disposition = %q", got)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	v, _ := f.GetCellValue("Daily Report", "F3")
	if v != "4.5" {
		t.Fatalf("grand total cell = %q, want 4.5", v)
	}

	rec = a.do(t, model.RoleReception, http.MethodGet, "/reception/", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "4.50") {
		t.Fatalf("reception = %d", rec.Code)
	}
	rec = a.do(t, model.RoleAdmin, http.MethodGet, "/reception/", "", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("admin reception = %d", rec.Code)
	}
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
