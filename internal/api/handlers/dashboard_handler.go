package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type DashboardHandler struct {
	d service.DashboardService
	r service.ReportService
}

func NewDashboardHandler(d service.DashboardService, r service.ReportService) *DashboardHandler {
	return &DashboardHandler{d: d, r: r}
}

func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	userID := GetUserID(c)

	dashboard, err := h.d.Dashboard(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(dashboard)
}

func (h *DashboardHandler) GetReport(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.ReportRequest
	if err := c.QueryParser(&req); err != nil {
		return service.Invalid("query", "The query string is invalid.")
	}

	report, err := h.r.Report(c.Context(), userID, &req)
	if err != nil {
		return err
	}

	return c.JSON(report)
}
