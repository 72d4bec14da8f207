package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-orders/internal/model"
	"github.com/iliyamo/restaurant-orders/internal/report"
)

// ReportService computes the reception dashboard, the daily report and the
// admin's summary figures.  "Today" is the calendar day in Location.
type ReportService struct {
	Orders   OrderStore
	Tables   TableStore
	Menu     MenuStore
	Users    UserStore
	Audit    AuditStore
	Location *time.Location
	Now      func() time.Time
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// DailySummary holds the orders of one day and their grand total.
type DailySummary struct {
	Date       time.Time
	Orders     []model.OrderDetail
	GrandTotal decimal.Decimal
	Location   *time.Location
}

// Today returns every order created today with totals.
func (s *ReportService) Today(ctx context.Context) (DailySummary, error) {
	from, to := DayBounds(nowOr(s.Now), s.Location)
	orders, err := s.Orders.OrdersCreatedBetween(ctx, from, to)
	if err != nil {
		return DailySummary{}, fmt.Errorf("load today's orders: %w", err)
	}
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Total())
	}
	return DailySummary{Date: from, Orders: orders, GrandTotal: total, Location: from.Location()}, nil
}

// Report converts the summary into the exported workbook content.
func (d DailySummary) Report() report.Daily {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	rows := make([]report.Row, 0, len(d.Orders))
	for _, o := range d.Orders {
		rows = append(rows, report.Row{
			OrderID: o.ID,
			Table:   o.TableNumber,
			Waiter:  o.WaiterUsername,
			Time:    o.CreatedAt.In(loc).Format("15:04"),
			Status:  o.Status.Label(),
			Total:   o.Total(),
		})
	}
	return report.Daily{Date: d.Date, Rows: rows, GrandTotal: d.GrandTotal}
}

// AdminCounts are the figures on the admin dashboard.
type AdminCounts struct {
	Users       int
	MenuItems   int
	OrdersToday int
	Tables      int
}

// Counts returns the admin dashboard figures.
func (s *ReportService) Counts(ctx context.Context) (AdminCounts, error) {
	var c AdminCounts
	var err error
	if c.Users, err = s.Users.CountUsers(ctx); err != nil {
		return AdminCounts{}, fmt.Errorf("count users: %w", err)
	}
	if c.MenuItems, err = s.Menu.CountMenuItems(ctx); err != nil {
		return AdminCounts{}, fmt.Errorf("count menu items: %w", err)
	}
	from, to := DayBounds(nowOr(s.Now), s.Location)
	if c.OrdersToday, err = s.Orders.CountOrdersCreatedBetween(ctx, from, to); err != nil {
		return AdminCounts{}, fmt.Errorf("count orders: %w", err)
	}
	if c.Tables, err = s.Tables.CountTables(ctx); err != nil {
		return AdminCounts{}, fmt.Errorf("count tables: %w", err)
	}
	return c, nil
}

// AuditTrail returns the newest audit entries first.  limit <= 0 means
// all of them.
func (s *ReportService) AuditTrail(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	return s.Audit.ListAudit(ctx, limit)
}
