package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"docvault/internal/auth"
)

const (
	// UserIDLocalKey stores the authenticated user's id in context locals.
	// Handlers read the owner identity from here only, never from client
	// input.
	UserIDLocalKey = "user_id"
	// UserEmailLocalKey stores the authenticated user's email.
	UserEmailLocalKey = "user_email"
)

// AuthRequired verifies the Authorization bearer token and stores the
// authenticated identity in context locals. Requests without a valid token
// get 401; the response never says why the token was rejected.
func AuthRequired(tokens *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization header missing")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDLocalKey, claims.UserID)
		c.Locals(UserEmailLocalKey, claims.Email)
		return c.Next()
	}
}

// UserIDFromCtx returns the authenticated user id set by AuthRequired.
func UserIDFromCtx(c *fiber.Ctx) (int64, bool) {
	id, ok := c.Locals(UserIDLocalKey).(int64)
	return id, ok
}
