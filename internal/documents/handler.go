package documents

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Handler exposes document submission endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds a documents HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type submitRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	FrontID   string `json:"front_id" validate:"required"`
	BackID    string `json:"back_id" validate:"required"`
	SelfieID  string `json:"selfie_id" validate:"required"`
	TaxID     string `json:"tax_id" validate:"required"`
}

// Submit stores the four KYC document references for an account.
func (h *Handler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	docs, err := h.svc.Submit(c.UserContext(), SubmitInput{
		AccountID: req.AccountID,
		FrontID:   req.FrontID,
		BackID:    req.BackID,
		SelfieID:  req.SelfieID,
		TaxID:     req.TaxID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"account_id": docs.AccountID,
		"status":     docs.Status,
	})
}

// Get returns the document set for an account.
func (h *Handler) Get(c *fiber.Ctx) error {
	docs, err := h.svc.GetByAccount(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"account_id": docs.AccountID,
		"front_id":   docs.FrontID,
		"back_id":    docs.BackID,
		"selfie_id":  docs.SelfieID,
		"tax_id":     docs.TaxID,
		"status":     docs.Status,
	})
}
