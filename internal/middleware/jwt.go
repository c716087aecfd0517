package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bearerauth/bearerauth/internal/auth"
)

// BearerAuth resolves the Authorization header to an active user and stores
// it under auth.UserLocalsKey. The token is not rotated.
func BearerAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := svc.CurrentUser(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return auth.HTTPError(err)
		}
		c.Locals(auth.UserLocalsKey, user)
		return c.Next()
	}
}
