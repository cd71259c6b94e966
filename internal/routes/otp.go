package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/otp"
)

// RegisterOTPRoutes wires OTP issue/validate endpoints. Issuance is rate
// limited per phone number.
func RegisterOTPRoutes(r fiber.Router, h *otp.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/otp")
	if rateLimiter != nil {
		group.Post("/send", rateLimiter, h.Send)
	} else {
		group.Post("/send", h.Send)
	}
	group.Post("/validate", h.Validate)
}
