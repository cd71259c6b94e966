package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/device"
)

func RegisterDeviceRoutes(r fiber.Router, h *device.Handler) {
	r.Post("/device/register", h.Register)
}
