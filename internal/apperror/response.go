package apperror

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the uniform wire shape for failures.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// genericMessages replace server-fault detail so internals are not leaked.
var genericMessages = map[Kind]string{
	KindProcessing:  "request could not be processed",
	KindCertificate: "certificate generation failed",
}

// FiberErrorHandler renders every error as an ErrorResponse. Fiber's own
// *fiber.Error values (from middleware and BodyParser paths) keep their
// status; everything else goes through the kind taxonomy.
func FiberErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{
				Code:    KindValidation.Code(),
				Message: fe.Message,
				Status:  fe.Code,
			})
		}

		kind := KindOf(err)
		message := err.Error()
		if generic, ok := genericMessages[kind]; ok {
			if logger != nil {
				logger.Error("request failed", "code", kind.Code(), "error", err)
			}
			message = generic
		}
		return c.Status(kind.Status()).JSON(ErrorResponse{
			Code:    kind.Code(),
			Message: message,
			Status:  kind.Status(),
		})
	}
}
