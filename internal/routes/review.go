package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/kyc"
	"github.com/kivu-bank/kivu_kyc/internal/review"
)

// RegisterReviewRoutes wires back-office review endpoints. The caller is
// expected to mount these behind the reviewer authority check.
func RegisterReviewRoutes(r fiber.Router, h *review.Handler, kycHandler *kyc.Handler) {
	r.Get("/kyc/pending", h.PendingKYC)
	r.Post("/kyc/status", h.UpdateKYCStatus)
	r.Get("/kyc/document/:documentId", kycHandler.FindByDocument)
	r.Get("/otp/pending", h.PendingOTPs)
	r.Post("/otp/status", h.UpdateOTPStatus)
}
