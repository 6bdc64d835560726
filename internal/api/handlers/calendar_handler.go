package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type CalendarHandler struct {
	s service.CalendarService
}

func NewCalendarHandler(service service.CalendarService) *CalendarHandler {
	return &CalendarHandler{s: service}
}

func (h *CalendarHandler) GetCalendar(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.CalendarRequest
	if err := c.QueryParser(&req); err != nil {
		return service.Invalid("query", "The query string is invalid.")
	}

	calendar, err := h.s.Calendar(c.Context(), userID, &req)
	if err != nil {
		return err
	}

	return c.JSON(calendar)
}
