package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kivu-bank/kivu_kyc/internal/auth"
)

// PrincipalKey is the Locals key holding the authenticated principal.
const PrincipalKey = "principal"

// JWTAuth validates bearer tokens and stores the asserted principal in the
// request Locals.
func JWTAuth(signer *auth.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		principal, err := signer.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(PrincipalKey, principal)
		return c.Next()
	}
}

// RequireAuthority gates a route on the principal holding the authority.
func RequireAuthority(authority string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := c.Locals(PrincipalKey).(auth.Principal)
		if !principal.IsAuthenticated() {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		if !principal.HasAuthority(authority) {
			return fiber.NewError(http.StatusForbidden, "insufficient authority")
		}
		return c.Next()
	}
}
