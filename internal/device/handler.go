package device

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the device registration endpoint.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds a device HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type registerRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	DeviceJWK   string `json:"device_pub" validate:"required,json"`
	Nonce       string `json:"nonce" validate:"required"`
	PoWHash     string `json:"pow_hash" validate:"required,hexadecimal"`
}

// Register exchanges a validated OTP plus proof of work for a device certificate.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cert, err := h.svc.Register(c.UserContext(), req.PhoneNumber, req.DeviceJWK, req.Nonce, req.PoWHash)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"device_cert": cert})
}
