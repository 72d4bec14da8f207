package service

import (
	"strings"

	"github.com/iliyamo/restaurant-orders/internal/model"
)

// GroupedItem aggregates order lines that share a menu item and note.
type GroupedItem struct {
	MenuItemID   uint64
	MenuItemName string
	Quantity     int
	Notes        string
}

type groupKey struct {
	menuItemID uint64
	notes      string
}

// GroupItems merges lines with the same menu item and trimmed note,
// summing quantities.  Groups keep the order in which their key was first
// seen, and name and note come from that first line.  An empty note is a
// key of its own.
func GroupItems(lines []model.OrderLine) []GroupedItem {
	var out []GroupedItem
	index := make(map[groupKey]int, len(lines))
	for _, l := range lines {
		k := groupKey{menuItemID: l.MenuItemID, notes: strings.TrimSpace(l.Notes)}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, GroupedItem{MenuItemID: l.MenuItemID, MenuItemName: l.MenuItemName, Notes: k.notes})
		}
		out[i].Quantity += l.Quantity
	}
	return out
}
