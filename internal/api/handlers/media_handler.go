package handlers

import (
	"github.com/gofiber/fiber/v2"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type MediaHandler struct {
	s   service.MediaService
	cfg config.Config
}

func NewMediaHandler(service service.MediaService, cfg config.Config) *MediaHandler {
	return &MediaHandler{s: service, cfg: cfg}
}

func (h *MediaHandler) ListUploads(c *fiber.Ctx) error {
	userID := GetUserID(c)
	page := pageFromQuery(c)

	media, total, err := h.s.List(c.Context(), userID, page)
	if err != nil {
		return err
	}

	return c.JSON(paginated(h.cfg, c, media, page, total))
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	userID := GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return service.Invalid("file", "The file field is required.")
	}

	media, err := h.s.Upload(c.Context(), userID, file)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(media)
}

func (h *MediaHandler) Download(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DownloadMediaRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	media, err := h.s.Download(c.Context(), userID, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(media)
}

func (h *MediaHandler) RemoveMedia(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DeleteMediaRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.s.Remove(c.Context(), userID, req.Media); err != nil {
		return err
	}

	return c.JSON(message("Media deleted successfully"))
}
