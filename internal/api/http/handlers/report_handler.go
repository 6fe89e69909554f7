package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-aid-service/internal/service"
)

// ReportHandler serves admin dashboards.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Dashboard handles GET /reports/dashboard?from=&to=&refresh=true.
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	var from, to time.Time
	if t := parseTime(c.Query("from")); t != nil {
		from = *t
	}
	if t := parseTime(c.Query("to")); t != nil {
		to = *t
	}
	report, err := h.reports.Dashboard(c.UserContext(), from, to, c.QueryBool("refresh", false))
	if err != nil {
		return err
	}
	return ok(c, report)
}
