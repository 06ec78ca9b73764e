package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"notaryapi/internal/service"
)

// Locals keys populated by RequireAuth for downstream handlers.
const (
	UserIDLocalKey    = "user_id"
	UserRoleLocalKey  = "user_role"
	UserEmailLocalKey = "user_email"
)

// RequireAuth verifies the bearer token and stores the caller's identity in
// context locals.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(UserIDLocalKey, claims.UserID)
		c.Locals(UserRoleLocalKey, claims.Role)
		c.Locals(UserEmailLocalKey, claims.Email)
		return c.Next()
	}
}

// RequireRoles lets the request through only when the authenticated role is
// one of the given roles. Must run after RequireAuth.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(UserRoleLocalKey).(string)
		if !allowed[role] {
			return fiber.NewError(fiber.StatusForbidden, "role not allowed")
		}
		return c.Next()
	}
}
