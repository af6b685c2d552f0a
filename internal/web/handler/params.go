package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/authgate/authgate/internal/apperr"
	"github.com/authgate/authgate/internal/db/paging"
)

// ParamID parses the :id route parameter.
func ParamID(c *fiber.Ctx) (uint64, error) {
	return parseID(c.Params("id"), "id")
}

// QueryID parses an optional id query parameter. Absent yields 0.
func QueryID(c *fiber.Ctx, key string) (uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}

	return parseID(raw, key)
}

func parseID(raw, name string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid " + name)
	}

	return id, nil
}

// PageRequest reads current and size from the query string.
func PageRequest(c *fiber.Ctx) (paging.Request, error) {
	var req paging.Request

	if err := c.QueryParser(&req); err != nil {
		return paging.Request{}, apperr.Wrap(apperr.KindValidation, err, "invalid paging parameters")
	}

	return req.Normalize(), nil
}
