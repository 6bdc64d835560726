package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/service"
)

const ReplayedHeader = "Idempotent-Replayed"

type IdempotencyMiddleware struct {
	s   service.IdempotencyService
	log *zap.Logger
}

func NewIdempotencyMiddleware(log *zap.Logger, s service.IdempotencyService) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{s: s, log: log}
}

// Handler claims the Idempotency-Key before running the request and replays
// the stored response of a key that already completed. Only successful
// responses are stored; any other outcome releases the key.
func (m *IdempotencyMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(service.IdempotencyHeader)
		if key == "" {
			return c.Next()
		}
		userID := UserID(c)
		method, path := c.Method(), c.Path()

		stored, err := m.s.Begin(c.Context(), userID, key, method, path)
		if err != nil {
			return err
		}
		if stored != nil {
			c.Set(ReplayedHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.StatusCode).Send(stored.ResponseBody)
		}

		completed := false
		defer func() {
			if completed {
				return
			}
			if err := m.s.Release(c.Context(), userID, key); err != nil {
				m.log.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}()

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		record := &models.IdempotencyKey{
			UserID:       userID,
			Key:          key,
			Method:       method,
			Path:         path,
			StatusCode:   status,
			ResponseBody: append([]byte(nil), c.Response().Body()...),
		}
		if err := m.s.Complete(c.Context(), record); err != nil {
			m.log.Warn("store idempotency key", zap.String("key", key), zap.Error(err))
			return nil
		}
		completed = true
		return nil
	}
}
