package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/config"
)

// SecurityHeaders decorates every response with the configured security
// headers. Each option applies independently; a disabled policy is a no-op.
func SecurityHeaders(cfg config.SecurityHeaders) fiber.Handler {
	hstsValue := fmt.Sprintf("max-age=%d", cfg.HSTSMaxAgeSeconds)
	if cfg.HSTSIncludeSubDomains {
		hstsValue += "; includeSubDomains"
	}

	return func(c *fiber.Ctx) error {
		err := c.Next()
		if !cfg.Enabled {
			return err
		}

		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		if cfg.CSPDirectives != "" {
			c.Set(fiber.HeaderContentSecurityPolicy, cfg.CSPDirectives)
		}
		if cfg.XSSProtection {
			c.Set(fiber.HeaderXXSSProtection, "1; mode=block")
		}
		if cfg.XFrameOptions {
			c.Set(fiber.HeaderXFrameOptions, "DENY")
		}
		if cfg.ReferrerPolicy != "" {
			c.Set(fiber.HeaderReferrerPolicy, cfg.ReferrerPolicy)
		}
		if cfg.PermissionsPolicy != "" {
			c.Set("Permissions-Policy", cfg.PermissionsPolicy)
		}
		if cfg.HSTSMaxAgeSeconds > 0 {
			c.Set(fiber.HeaderStrictTransportSecurity, hstsValue)
		}
		return err
	}
}
