package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/pkg/utils"
)

const UserIDKey = "user_id"

type AuthMiddleware struct {
	s   service.ApiKeyService
	cfg config.Config
	log *zap.Logger
}

func NewAuthMiddleware(cfg config.Config, log *zap.Logger, service service.ApiKeyService) *AuthMiddleware {
	return &AuthMiddleware{s: service, cfg: cfg, log: log}
}

// AuthMiddleware accepts "Authorization: Bearer <token>" where the token is
// either a JWT or a personal access key. The api_key query parameter is
// accepted for access keys only.
func (m *AuthMiddleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			token = c.Query("api_key")
			if !utils.IsApiKey(token) {
				return service.ErrUnauthorized
			}
		}

		if utils.IsApiKey(token) {
			userID, err := m.s.GetUserID(c.Context(), token)
			if err != nil {
				return service.ErrUnauthorized
			}
			c.Locals(UserIDKey, userID)
			return c.Next()
		}

		claims, err := utils.ValidateToken(m.cfg.SecretKey, token)
		if err != nil {
			m.log.Info("token validation failed", zap.Error(err))
			return service.ErrUnauthorized
		}
		userID, err := strconv.ParseInt(claims.UserID, 10, 64)
		if err != nil || userID <= 0 {
			return service.ErrUnauthorized
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// UserID reads the authenticated user set by AuthMiddleware.
func UserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(UserIDKey).(int64)
	return id
}
