package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/repository"
)

// TableService serves the waiter's table selection and menu pages and the
// availability toggles.
type TableService struct {
	Tables TableStore
	Menu   MenuStore
	Now    func() time.Time
}

// ListTables returns every table ordered by number.
func (s *TableService) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.Tables.ListTables(ctx)
}

// MenuForTable returns the table and the menu items currently available.
func (s *TableService) MenuForTable(ctx context.Context, tableID uint64) (model.Table, []model.MenuItem, error) {
	t, err := s.Tables.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return model.Table{}, nil, notFoundf("table not found")
		}
		return model.Table{}, nil, fmt.Errorf("load table %d: %w", tableID, err)
	}
	items, err := s.Menu.ListMenuItems(ctx, true)
	if err != nil {
		return model.Table{}, nil, fmt.Errorf("load menu: %w", err)
	}
	return t, items, nil
}

// Toggle flips the availability of a table and records who did it.
func (s *TableService) Toggle(ctx context.Context, actor Actor, tableID uint64) (model.Table, error) {
	now := nowOr(s.Now)
	t, err := s.Tables.ToggleTable(ctx, tableID, func(t model.Table) model.AuditEntry {
		state := t.AvailabilityLabel()
		return actor.audit("Mark table as "+state, fmt.Sprintf("Table %d marked as %s", t.Number, state), now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			return model.Table{}, notFoundf("table not found")
		}
		return model.Table{}, fmt.Errorf("toggle table %d: %w", tableID, err)
	}
	return t, nil
}

// ToggleMenuItem flips whether a menu item can be ordered.
func (s *TableService) ToggleMenuItem(ctx context.Context, actor Actor, itemID uint64) (model.MenuItem, error) {
	now := nowOr(s.Now)
	m, err := s.Menu.ToggleMenuItem(ctx, itemID, func(m model.MenuItem) model.AuditEntry {
		state := "unavailable"
		if m.Available {
			state = "available"
		}
		return actor.audit("Mark menu item as "+state, fmt.Sprintf("Menu item %q marked as %s", m.Name, state), now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrMenuItemNotFound) {
			return model.MenuItem{}, notFoundf("menu item not found")
		}
		return model.MenuItem{}, fmt.Errorf("toggle menu item %d: %w", itemID, err)
	}
	return m, nil
}
