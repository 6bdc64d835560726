package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type TagHandler struct {
	s service.TagService
}

func NewTagHandler(service service.TagService) *TagHandler {
	return &TagHandler{s: service}
}

func (h *TagHandler) ListTags(c *fiber.Ctx) error {
	userID := GetUserID(c)

	tags, err := h.s.List(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(tags)
}

func (h *TagHandler) CreateTag(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.TagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tag, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *TagHandler) UpdateTag(c *fiber.Ctx) error {
	userID := GetUserID(c)
	tagID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	var req transfer.TagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tag, err := h.s.Update(c.Context(), userID, tagID, &req)
	if err != nil {
		return err
	}

	return c.JSON(tag)
}

func (h *TagHandler) RemoveTag(c *fiber.Ctx) error {
	userID := GetUserID(c)
	tagID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.Remove(c.Context(), userID, tagID); err != nil {
		return err
	}

	return c.JSON(message("Tag deleted successfully"))
}
