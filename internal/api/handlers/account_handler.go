package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vibecreator/mixpost-api/internal/service"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(service service.AccountService) *AccountHandler {
	return &AccountHandler{s: service}
}

func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)

	accounts, err := h.s.List(c.Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(accounts)
}

func (h *AccountHandler) AddAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)

	authURL, err := h.s.GetAuthURL(c.Context(), userID, c.Params("provider"))
	if err != nil {
		return err
	}

	return c.JSON(authURL)
}

// CallbackHandler is reached by the provider redirect, without an API
// credential. The signed state identifies the user.
func (h *AccountHandler) CallbackHandler(c *fiber.Ctx) error {
	if reason := c.Query("error"); reason != "" {
		return service.Invalid("code", "The authorization was denied: "+reason)
	}

	account, err := h.s.Callback(c.Context(), c.Params("provider"), c.Query("code"), c.Query("state"))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(account)
}

func (h *AccountHandler) RefreshAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	account, err := h.s.Refresh(c.Context(), userID, accountID)
	if err != nil {
		return err
	}

	return c.JSON(account)
}

func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	accountID, err := ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.s.Delete(c.Context(), userID, accountID); err != nil {
		return err
	}

	return c.JSON(message("Account deleted successfully"))
}
