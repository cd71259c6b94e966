package kyc

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes personal-info submission endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds a personal-info HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type submitInfoRequest struct {
	AccountID      string `json:"account_id" validate:"required"`
	IDNumber       string `json:"id_number" validate:"required"`
	ExpirationDate string `json:"expiry_date" validate:"required"`
}

// SubmitInfo records document identity data for an account.
func (h *Handler) SubmitInfo(c *fiber.Ctx) error {
	var req submitInfoRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	info, err := h.svc.SubmitInfo(c.UserContext(), req.AccountID, req.IDNumber, req.ExpirationDate)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"account_id": info.AccountID,
		"status":     info.Status,
	})
}

type locationRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	Location  string `json:"location" validate:"required"`
}

// SubmitLocation sets the declared location.
func (h *Handler) SubmitLocation(c *fiber.Ctx) error {
	var req locationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateLocation(c.UserContext(), req.AccountID, req.Location); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "location_saved"})
}

type emailRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// SubmitEmail sets the contact email.
func (h *Handler) SubmitEmail(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateEmail(c.UserContext(), req.AccountID, req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "email_saved"})
}

// SendEmailOTP issues the email verification code.
func (h *Handler) SendEmailOTP(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SendEmailOTP(c.UserContext(), req.AccountID, req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "otp_sent"})
}

type verifyEmailRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	OTP       string `json:"otp" validate:"required,len=6,numeric"`
}

// VerifyEmailOTP validates the code and marks the record email-verified.
func (h *Handler) VerifyEmailOTP(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VerifyEmailOTP(c.UserContext(), req.AccountID, req.Email, req.OTP); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": string(StatusEmailVerified)})
}

type certRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	DevicePub string `json:"device_pub" validate:"required"`
}

// Certificate returns a signed KYC certificate for an approved account.
func (h *Handler) Certificate(c *fiber.Ctx) error {
	var req certRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	cert, err := h.svc.Certificate(c.UserContext(), req.AccountID, req.DevicePub)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"certificate": cert})
}

type recoveryRequest struct {
	RecoveryToken string `json:"recovery_token" validate:"required"`
	DevicePub     string `json:"device_pub" validate:"required"`
}

// Recover moves an approved record onto a replacement account using a
// recovery token and hands back a certificate for the new device.
func (h *Handler) Recover(c *fiber.Ctx) error {
	var req recoveryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	accountID, cert, err := h.svc.Recover(c.UserContext(), req.RecoveryToken, req.DevicePub)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":  accountID,
		"certificate": cert,
	})
}

// FindByDocument lists every record sharing a document unique id. More than
// one entry flags a duplicate identity for the reviewer.
func (h *Handler) FindByDocument(c *fiber.Ctx) error {
	infos, err := h.svc.FindByDocumentID(c.UserContext(), c.Params("documentId"))
	if err != nil {
		return err
	}
	out := make([]fiber.Map, 0, len(infos))
	for _, info := range infos {
		out = append(out, fiber.Map{
			"account_id":  info.AccountID,
			"id_number":   info.DocumentUniqueID,
			"expiry_date": info.ExpirationDate,
			"status":      info.Status,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns the personal-info record for an account.
func (h *Handler) Get(c *fiber.Ctx) error {
	accountID := c.Params("accountId")
	info, err := h.svc.GetByAccount(c.UserContext(), accountID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id":       info.AccountID,
		"id_number":        info.DocumentUniqueID,
		"expiry_date":      info.ExpirationDate,
		"location":         info.Location,
		"email":            info.Email,
		"status":           info.Status,
		"rejection_reason": info.RejectionReason,
	})
}
