package otp

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes OTP issue/validate endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds an OTP HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type sendRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	DeviceJWK   string `json:"device_pub" validate:"required,json"`
}

type sendResponse struct {
	OTPHash string `json:"otp_hash"`
	Status  string `json:"status"`
}

// Send issues and delivers a new OTP for the phone/device pair.
func (h *Handler) Send(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	data, err := h.svc.Issue(c.UserContext(), req.PhoneNumber, req.DeviceJWK)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sendResponse{OTPHash: data.Hash, Status: string(StatusPending)})
}

type validateRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	OTP         string `json:"otp" validate:"required,len=4,numeric"`
	DeviceJWK   string `json:"device_pub" validate:"required,json"`
}

// Validate checks a submitted code against the stored hash.
func (h *Handler) Validate(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Validate(c.UserContext(), req.PhoneNumber, req.OTP, req.DeviceJWK); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": string(StatusValidated)})
}
