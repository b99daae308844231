package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/auth"
)

// RegisterAuthRoutes wires the signup/login endpoints. Pre-auth endpoints sit
// behind the anonymous gate; logout requires a session.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, anonGate, sessionRequired, rateLimiter fiber.Handler) {
	group := r.Group("/auth")

	group.Get("/anonymous-token", anonGate, h.GenerateAnonymousToken)
	group.Post("/sign-up", anonGate, h.SignUp)
	if rateLimiter != nil {
		group.Post("/request-code", anonGate, rateLimiter, h.RequestCode)
		group.Post("/login", anonGate, rateLimiter, h.Login)
	} else {
		group.Post("/request-code", anonGate, h.RequestCode)
		group.Post("/login", anonGate, h.Login)
	}
	group.Post("/refresh", anonGate, h.Refresh)
	group.Post("/logout", sessionRequired, h.Logout)
}
