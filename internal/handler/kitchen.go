package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// kitchenItem is one grouped line as the kitchen page shows it.
type kitchenItem struct {
	MenuItemName string `json:"menu_item_name"`
	Quantity     int    `json:"quantity"`
	Notes        string `json:"notes"`
}

// kitchenOrder is the JSON shape of one open order.
type kitchenOrder struct {
	ID            uint64        `json:"id"`
	TableNumber   int           `json:"table_number"`
	CreatedAtDate string        `json:"created_at_date"`
	CreatedAtTime string        `json:"created_at_time"`
	Status        string        `json:"status"`
	StatusDisplay string        `json:"status_display"`
	Notes         string        `json:"notes"`
	Items         []kitchenItem `json:"items"`
}

// KitchenQueue renders the open orders for the cooks.
func (h *Handler) KitchenQueue(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Orders.KitchenQueue(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "kitchen_queue", h.page(c, "Kitchen", q))
}

// KitchenQueueData is the JSON the kitchen page polls.
func (h *Handler) KitchenQueueData(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	q, err := h.Orders.KitchenQueue(ctx)
	if err != nil {
		return h.apiError(c, err)
	}
	loc := h.loc()                         // dates and times are shown in the restaurant's zone
	out := make([]kitchenOrder, 0, len(q)) // never null, an empty queue is []
	for _, o := range q {
		items := make([]kitchenItem, 0, len(o.Groups))
		for _, g := range o.Groups { // groups are already merged by item and notes
			items = append(items, kitchenItem{MenuItemName: g.MenuItemName, Quantity: g.Quantity, Notes: g.Notes})
		}
		created := o.CreatedAt.In(loc)
		out = append(out, kitchenOrder{
			ID:            o.ID,
			TableNumber:   o.TableNumber,
			CreatedAtDate: created.Format("02/01/2006"),
			CreatedAtTime: created.Format("15:04"),
			Status:        string(o.Status),
			StatusDisplay: o.Status.Label(),
			Notes:         o.Notes,
			Items:         items,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

type statusReq struct {
	Status string `json:"status"`
}

// UpdateOrderStatus moves an order to preparing or ready.
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	if c.Request().Method != http.MethodPost {
		return methodNotAllowed(c)
	}
	id, ok := pathID(c, "order_id") // parse the order id from the path
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	var req statusReq
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil { // body must be {"status": ...}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.UpdateStatus(ctx, actor(c), id, req.Status); err != nil { // only preparing and ready, never backwards
		return h.apiError(c, err)
	}
	h.purgeKitchen(c) // polling cooks must see the change right away
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
