package model

import "github.com/shopspring/decimal"

// Table is a seating unit in the `tables` table.
type Table struct {
	ID          uint64 // tables.id
	Number      int    // tables.number (unique)
	Capacity    int    // tables.capacity
	IsAvailable bool   // tables.is_available
}

// AvailabilityLabel returns "available" or "occupied".
func (t Table) AvailabilityLabel() string {
	if t.IsAvailable {
		return "available"
	}
	return "occupied"
}

// MenuItem is an orderable product in the `menu_items` table.  Price is
// stored as DECIMAL(6,2) and is never negative.
type MenuItem struct {
	ID          uint64          // menu_items.id
	Name        string          // menu_items.name
	Description string          // menu_items.description
	Price       decimal.Decimal // menu_items.price
	Available   bool            // menu_items.available
}
