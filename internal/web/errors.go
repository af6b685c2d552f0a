package web

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/apperr"
	"github.com/authgate/authgate/internal/web/handler"
)

// retryAfterSeconds is sent with 503 answers.
const retryAfterSeconds = 1

// ErrorHandler is the fiber error handler. It is the only place that turns
// an error into a status code and an envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return handler.Fail(c, fe.Code, fe.Message)
	}

	kind := apperr.KindOf(err)

	switch kind {
	case apperr.KindInternal:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	case apperr.KindUnavailable:
		log.Warn().Err(err).Str("path", c.Path()).Msg("request timed out")
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	default:
	}

	return handler.Fail(c, kind.Status(), apperr.Message(err))
}
