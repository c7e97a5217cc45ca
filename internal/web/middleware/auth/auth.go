package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dirauth/dirauth/internal/auth"
)

const (
	// LocalsClaims is the fiber.Locals key holding the verified *auth.Claims.
	LocalsClaims = "claims"

	bearerPrefix = "Bearer "
)

// Bearer verifies the Authorization bearer token and stores its claims in the request locals.
func Bearer(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := svc.Authorize(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			return err
		}

		c.Locals(LocalsClaims, claims)

		return c.Next()
	}
}

// RequireAdmin lets requests through whose token belongs to an active administrator.
// It must run after Bearer.
func RequireAdmin(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := svc.User(c.UserContext(), Claims(c))
		if err != nil {
			return err
		}

		if !user.IsAdmin() {
			return fiber.NewError(fiber.StatusForbidden, "administrator permission required")
		}

		return c.Next()
	}
}

// Claims returns the claims stored by Bearer, or nil.
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(LocalsClaims).(*auth.Claims)

	return claims
}
