package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/service"
)

// ReportsHandler exposes admin summary endpoints.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// StatusSummary GET /reports/status-summary.
func (h *ReportsHandler) StatusSummary(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	summary, err := h.reports.StatusSummary(c.Context(), admin)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}
