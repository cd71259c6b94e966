package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/documents"
)

// RegisterDocumentRoutes wires KYC document endpoints.
func RegisterDocumentRoutes(r fiber.Router, h *documents.Handler) {
	group := r.Group("/documents")
	group.Post("", h.Submit)
	group.Get("/:accountId", h.Get)
}
