package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/auth"
)

func RegisterTokenRoutes(r fiber.Router, h *auth.Handler) {
	r.Post("/token/recovery", h.RecoveryToken)
}
