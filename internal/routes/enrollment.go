package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/visagepay/visagepay/internal/enrollment"
)

// RegisterEnrollmentRoutes wires customer enrollment endpoints. Enrollment is
// performed by staff at the counter, never self-service.
func RegisterEnrollmentRoutes(r fiber.Router, h *enrollment.Handler, staff fiber.Handler) {
	r.Post("/enroll", staff, h.Enroll)
	r.Put("/customers/:userId/face", staff, h.ReEnroll)
}
