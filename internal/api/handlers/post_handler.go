package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type PostHandler struct {
	s   service.PostService
	cfg config.Config
}

func NewPostHandler(service service.PostService, cfg config.Config) *PostHandler {
	return &PostHandler{s: service, cfg: cfg}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	v := &service.ValidationError{}
	filter := models.PostFilter{
		TagID:     queryID(c, "tag_id", v),
		AccountID: queryID(c, "account_id", v),
		Keyword:   strings.TrimSpace(c.Query("keyword")),
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParsePostStatus(raw)
		if err != nil {
			v.Add("status", "The selected status is invalid.")
		}
		filter.Status = &status
	}
	if err := v.Err(); err != nil {
		return err
	}

	page := pageFromQuery(c)
	posts, total, err := h.s.List(c.Context(), userID, filter, page)
	if err != nil {
		return err
	}

	return c.JSON(paginated(h.cfg, c, posts, page, total))
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.PostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := h.s.Create(c.Context(), userID, &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.s.Get(c.Context(), userID, postID)
	if err != nil {
		return err
	}

	return c.JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	var req transfer.PostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := h.s.Update(c.Context(), userID, postID, &req)
	if err != nil {
		return err
	}

	return c.JSON(post)
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.Remove(c.Context(), userID, postID); err != nil {
		return err
	}

	return c.JSON(message("Post deleted successfully"))
}

func (h *PostHandler) RemovePosts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DeletePostsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := h.s.RemoveMany(c.Context(), userID, req.Posts); err != nil {
		return err
	}

	return c.JSON(message("Posts deleted successfully"))
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	return h.schedule(c, h.s.Schedule)
}

func (h *PostHandler) RetryPost(c *fiber.Ctx) error {
	return h.schedule(c, h.s.Retry)
}

func (h *PostHandler) DuplicatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.s.Duplicate(c.Context(), userID, postID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

type scheduleFunc func(ctx context.Context, userID, postID int64, req *transfer.ScheduleRequest) (*models.Post, error)

func (h *PostHandler) schedule(c *fiber.Ctx, fn scheduleFunc) error {
	userID := GetUserID(c)
	postID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	var req transfer.ScheduleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := fn(c.Context(), userID, postID, &req)
	if err != nil {
		return err
	}

	return c.JSON(post)
}
