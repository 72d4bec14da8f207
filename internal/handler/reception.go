package handler

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-orders/internal/report"
)

// Reception shows today's orders with their totals.
func (h *Handler) Reception(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Reports.Today(ctx)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "reception", h.page(c, "Reception", s))
}

// DownloadDailyReport sends today's report as an xlsx attachment.
func (h *Handler) DownloadDailyReport(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		return methodNotAllowed(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Reports.Today(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := report.WriteDaily(&buf, s.Report()); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+report.Filename(s.Date))
	return c.Blob(http.StatusOK, report.ContentType, buf.Bytes())
}
