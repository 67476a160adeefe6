package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/user/elpisexchange/backend/internal/auth"
)

// Locals keys set by Protected.
const (
	LocalAccountID   = "accountID"
	LocalDisplayName = "displayName"
)

// Protected is a middleware function to verify JWT authentication.
func Protected(tokens *auth.TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization header"})
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		c.Locals(LocalAccountID, claims.AccountID)
		c.Locals(LocalDisplayName, claims.DisplayName)
		return c.Next()
	}
}

// AccountID returns the account set by Protected, or "" on unprotected routes.
func AccountID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalAccountID).(string)
	return id
}
