package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/MarziehKaviani/IranianPooshesh/internal/verification"
)

// RegisterVerificationRoutes wires the personal-info verification endpoints,
// all of which require an authenticated session.
func RegisterVerificationRoutes(r fiber.Router, h *verification.Handler, sessionRequired fiber.Handler) {
	group := r.Group("/verification", sessionRequired)

	group.Post("/personal-info", h.Submit)
	group.Get("/preview", h.Preview)
	group.Post("/confirm", h.Confirm)
}
