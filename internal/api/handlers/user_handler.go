package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userId := GetUserID(c)

	userInfo, err := h.s.GetUserInfo(c.Context(), userId)
	if err != nil {
		return err
	}

	return c.JSON(userInfo)
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userId := GetUserID(c)

	var req transfer.UserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.s.UpdateUser(c.Context(), userId, &req)
	if err != nil {
		return err
	}

	return c.JSON(user)
}
