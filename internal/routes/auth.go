package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bearerauth/bearerauth/internal/auth"
)

// RegisterAuthRoutes wires token login.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/login", rateLimiter, h.Login)
	} else {
		r.Post("/login", h.Login)
	}
}

// RegisterProfileRoutes wires endpoints that require a bearer token.
func RegisterProfileRoutes(r fiber.Router, h *auth.Handler, bearer fiber.Handler) {
	r.Get("/me", bearer, h.Me)
}
