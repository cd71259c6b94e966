package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/kyc"
)

// RegisterKYCRoutes wires personal-info submission endpoints.
func RegisterKYCRoutes(r fiber.Router, h *kyc.Handler) {
	group := r.Group("/kyc")
	group.Post("/info", h.SubmitInfo)
	group.Post("/location", h.SubmitLocation)
	group.Post("/email", h.SubmitEmail)
	group.Post("/email/otp", h.SendEmailOTP)
	group.Post("/email/verify", h.VerifyEmailOTP)
	group.Post("/cert", h.Certificate)
	group.Post("/recovery", h.Recover)
	group.Get("/:accountId", h.Get)
}
