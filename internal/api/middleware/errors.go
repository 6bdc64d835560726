package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/service"
)

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var (
		verr *service.ValidationError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &ferr):
		return ferr.Code
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as {message, errors?}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := StatusFor(err)
		resp := errorResponse{Message: err.Error()}

		var (
			verr *service.ValidationError
			uerr *service.UpstreamError
		)
		switch {
		case errors.As(err, &verr):
			resp.Message = verr.Error()
			resp.Errors = verr.Errors
		case errors.Is(err, service.ErrNotFound):
			resp.Message = "Not found."
		case errors.Is(err, service.ErrUnauthorized):
			resp.Message = "Unauthenticated."
		case errors.Is(err, service.ErrRateLimited):
			resp.Message = "Too many requests."
		case errors.Is(err, service.ErrConflict):
			resp.Message = "A request with this idempotency key is still in progress."
		case errors.As(err, &uerr):
			log.Error("upstream failure", zap.String("op", uerr.Op), zap.Error(uerr.Err), zap.String("path", c.Path()))
			resp.Message = "Unable to " + uerr.Op + "."
		case status == fiber.StatusInternalServerError:
			log.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
			resp.Message = "Server error."
		}

		return c.Status(status).JSON(resp)
	}
}
