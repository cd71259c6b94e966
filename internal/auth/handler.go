package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the recovery-token endpoint.
type Handler struct {
	signer *Signer
	ttl    time.Duration
}

// NewHandler builds a token HTTP handler.
func NewHandler(signer *Signer, ttl time.Duration) *Handler {
	return &Handler{signer: signer, ttl: ttl}
}

type recoveryRequest struct {
	OldAccountID string `json:"old_account_id"`
	NewAccountID string `json:"new_account_id"`
}

// RecoveryToken issues a token authorizing an account migration.
func (h *Handler) RecoveryToken(c *fiber.Ctx) error {
	var req recoveryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.signer.IssueRecoveryToken(req.OldAccountID, req.NewAccountID, h.ttl)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":      token,
		"expires_in": int64(h.ttl.Seconds()),
	})
}
