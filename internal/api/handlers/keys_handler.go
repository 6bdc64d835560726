package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type ApiKeyHandler struct {
	s service.ApiKeyService
}

func NewApiKeyHandler(service service.ApiKeyService) *ApiKeyHandler {
	return &ApiKeyHandler{s: service}
}

func (h *ApiKeyHandler) CreateApiKey(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req transfer.ApiKeyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	key, err := h.s.Create(c.Context(), userId, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(key)
}

func (h *ApiKeyHandler) ListKeys(c *fiber.Ctx) error {
	userId := GetUserID(c)

	keys, err := h.s.List(c.Context(), userId)
	if err != nil {
		return err
	}

	return c.JSON(keys)
}

func (h *ApiKeyHandler) RemoveAPIKey(c *fiber.Ctx) error {
	userId := GetUserID(c)
	keyID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.RemoveAPIKey(c.Context(), userId, keyID); err != nil {
		return err
	}

	return c.JSON(message("Token deleted successfully"))
}
