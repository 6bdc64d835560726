package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettingsInfo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	settingsInfo, err := h.s.GetSettingsInfo(c.Context(), userId)
	if err != nil {
		return err
	}

	return c.JSON(settingsInfo)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req transfer.SettingsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	settings, err := h.s.UpdateSettings(c.Context(), userId, &req)
	if err != nil {
		return err
	}

	return c.JSON(settings)
}
