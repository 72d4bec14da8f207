// Package report renders the reception's daily order report as an xlsx
// workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in the workbook.
const SheetName = "Daily Report"

// ContentType is the MIME type of the generated file.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the column titles of the first row.
var Headers = []string{"Order ID", "Table", "Waiter", "Time", "Status", "Total"}

// Row is one order in the report.
type Row struct {
	OrderID uint64
	Table   int
	Waiter  string
	Time    string // HH:MM in the restaurant's time zone
	Status  string
	Total   decimal.Decimal
}

// Daily is the content of one day's report.
type Daily struct {
	Date       time.Time
	Rows       []Row
	GrandTotal decimal.Decimal
}

// Filename returns the attachment name for the report of date.
func Filename(date time.Time) string {
	return fmt.Sprintf("daily_report_%s.xlsx", date.Format("2006-01-02"))
}

// WriteDaily writes d as an xlsx workbook to w.  Totals are written as
// numbers rounded to two decimals.  The last row carries "Grand Total" in
// the Status column and the grand total in the Total column.
func WriteDaily(w io.Writer, d Daily) error {
	f := excelize.NewFile()
	defer f.Close()

	def := f.GetSheetName(0)
	if err := f.SetSheetName(def, SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range d.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.OrderID, r.Table, r.Waiter, r.Time, r.Status, money(r.Total)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last := len(d.Rows) + 2
	if err := f.SetCellValue(SheetName, fmt.Sprintf("E%d", last), "Grand Total"); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, fmt.Sprintf("F%d", last), money(d.GrandTotal)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func money(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}
