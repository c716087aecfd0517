package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type errorEntry struct {
	Timestamp string `json:"timestamp"`
	Code      int    `json:"code"`
	Detail    string `json:"detail"`
}

type errorBody struct {
	Error []errorEntry `json:"error"`
}

// ErrorHandler renders every failure as {"error":[{timestamp, code, detail}]}.
// Errors that are not *fiber.Error become an opaque 500.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		detail := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			detail = fe.Message
		} else {
			logger.ErrorContext(c.UserContext(), "unhandled error",
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
		}

		return c.Status(code).JSON(errorBody{
			Error: []errorEntry{{
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				Code:      code,
				Detail:    detail,
			}},
		})
	}
}
