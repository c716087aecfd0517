package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bearerauth/bearerauth/internal/auth"
)

// RegisterIdentityRoutes wires user registration. idempotency may be nil.
func RegisterIdentityRoutes(r fiber.Router, h *auth.Handler, idempotency fiber.Handler) {
	if idempotency != nil {
		r.Post("/sign-up", idempotency, h.SignUp)
		return
	}
	r.Post("/sign-up", h.SignUp)
}
