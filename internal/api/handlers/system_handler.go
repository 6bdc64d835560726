package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
)

type SystemHandler struct {
	s service.SystemService
}

func NewSystemHandler(service service.SystemService) *SystemHandler {
	return &SystemHandler{s: service}
}

func (h *SystemHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.s.Status(c.Context()))
}

func (h *SystemHandler) ListServices(c *fiber.Ctx) error {
	return c.JSON(h.s.Services())
}
