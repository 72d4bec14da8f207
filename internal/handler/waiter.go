package handler

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/service"
	"github.com/iliyamo/restaurant-orders/internal/web"
)

// SelectTable lists the tables for the waiter.
func (h *Handler) SelectTable(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tables, err := h.Tables.ListTables(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "select_table", h.page(c, "Tables", tables))
}

type menuPage struct {
	Table model.Table
	Items []model.MenuItem
}

// Menu shows the orderable items for a table.
func (h *Handler) Menu(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "table_id")
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "table not found")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	table, items, err := h.Tables.MenuForTable(ctx, id)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "menu", h.page(c, "Menu", menuPage{Table: table, Items: items}))
}

// parseOrderLines reads item_id_<k>, quantity_<k> and notes_<k>.  A
// missing quantity means 1.  Lines whose id or quantity does not parse
// are skipped, as are quantities below one.  Lines come back ordered by k.
func parseOrderLines(form url.Values) []service.LineInput {
	type keyed struct {
		k    string
		line service.LineInput
	}
	var lines []keyed
	for key := range form {
		suffix, ok := strings.CutPrefix(key, "item_id_")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSpace(form.Get(key)), 10, 64)
		if err != nil {
			continue
		}
		qty := 1
		if vals, present := form["quantity_"+suffix]; present && len(vals) > 0 {
			q, err := strconv.Atoi(strings.TrimSpace(vals[0]))
			if err != nil {
				continue
			}
			qty = q
		}
		if qty <= 0 {
			continue
		}
		lines = append(lines, keyed{k: suffix, line: service.LineInput{
			MenuItemID: id,
			Quantity:   qty,
			Notes:      form.Get("notes_" + suffix),
		}})
	}
	sort.Slice(lines, func(i, j int) bool {
		a, errA := strconv.Atoi(lines[i].k)
		b, errB := strconv.Atoi(lines[j].k)
		if errA == nil && errB == nil {
			return a < b
		}
		return lines[i].k < lines[j].k
	})
	out := make([]service.LineInput, len(lines))
	for i, l := range lines {
		out[i] = l.line
	}
	return out
}

// SendOrder places an order for a table and returns to the table list.
func (h *Handler) SendOrder(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "table_id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	form, err := c.FormParams() // item_id_<k>, quantity_<k>, notes_<k>, order_notes
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	lines := parseOrderLines(form)
	if len(lines) == 0 { // nothing orderable left after dropping bad lines
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no items in order"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	order, err := h.Orders.Submit(ctx, actor(c), id, lines, form.Get("order_notes")) // one transaction: order, lines, table, audit
	if err != nil {
		return h.apiError(c, err)
	}
	h.purgeKitchen(c) // the new order belongs in the kitchen queue
	web.SetFlash(c, web.FlashSuccess, "Order "+strconv.FormatUint(order.ID, 10)+" sent to the kitchen")
	return c.Redirect(http.StatusFound, "/select-table/")
}

// ToggleTable flips a table between available and occupied.
func (h *Handler) ToggleTable(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "table_id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	t, err := h.Tables.Toggle(ctx, actor(c), id)
	if err != nil {
		return h.apiError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "is_available": t.IsAvailable})
}

// DeliverOrder marks a ready order as delivered to the table.
func (h *Handler) DeliverOrder(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "order_id")
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.Deliver(ctx, actor(c), id); err != nil {
		return h.apiError(c, err)
	}
	h.purgeKitchen(c)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
