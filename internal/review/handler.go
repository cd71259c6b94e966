package review

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes reviewer endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds a review HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

// PendingKYC lists submissions awaiting a decision.
func (h *Handler) PendingKYC(c *fiber.Ctx) error {
	records, err := h.svc.PendingKYC(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(records)
}

// PendingOTPs lists OTP requests awaiting validation.
func (h *Handler) PendingOTPs(c *fiber.Ctx) error {
	records, err := h.svc.PendingOTPs(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(records)
}

type kycDecisionRequest struct {
	AccountID       string `json:"account_id" validate:"required"`
	NewStatus       string `json:"new_status" validate:"required"`
	IDNumber        string `json:"id_number" validate:"required"`
	ExpiryDate      string `json:"expiry_date" validate:"required"`
	RejectionReason string `json:"rejection_reason"`
}

// UpdateKYCStatus applies an approval or rejection decision.
func (h *Handler) UpdateKYCStatus(c *fiber.Ctx) error {
	var req kycDecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateKYCStatus(c.UserContext(), req.AccountID, req.NewStatus, req.IDNumber, req.ExpiryDate, req.RejectionReason); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": req.AccountID,
		"status":     req.NewStatus,
	})
}

type otpStatusRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	NewStatus   string `json:"new_status" validate:"required"`
}

// UpdateOTPStatus applies a reviewer override to an OTP record.
func (h *Handler) UpdateOTPStatus(c *fiber.Ctx) error {
	var req otpStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateOTPStatus(c.UserContext(), req.PhoneNumber, req.NewStatus); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"phone_number": req.PhoneNumber,
		"status":       req.NewStatus,
	})
}
