package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/api/middleware"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

func GetUserID(c *fiber.Ctx) int64 {
	return middleware.UserID(c)
}

// ParamID reads a positive id path parameter. Anything else is a 404.
func ParamID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return int64(id), nil
}

// queryID reads an optional positive id filter. A malformed value is
// recorded on v instead of dropping the filter.
func queryID(c *fiber.Ctx, name string, v *service.ValidationError) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		v.Add(name, fmt.Sprintf("The %s must be a positive integer.", name))
		return 0
	}
	return id
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return service.Invalid("body", "The request body is not valid JSON.")
	}
	return nil
}

func pageFromQuery(c *fiber.Ctx) repository.Page {
	return service.NormalizePage(c.QueryInt("page", 1), c.QueryInt("per_page", service.DefaultPerPage))
}

func queryValues(c *fiber.Ctx) url.Values {
	q := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		q.Add(string(k), string(v))
	})
	return q
}

func paginated[T any](cfg config.Config, c *fiber.Ctx, data []T, page repository.Page, total int) transfer.Paginated[T] {
	base := strings.TrimRight(cfg.AppURL, "/") + c.Path()
	return transfer.NewPaginated(data, page.Number, page.Size, total, base, queryValues(c))
}

func message(msg string) transfer.MessageResponse {
	return transfer.MessageResponse{Message: msg}
}
