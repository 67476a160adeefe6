package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/user/elpisexchange/backend/internal/auth"
)

func TestProtected(t *testing.T) {
	tokens := auth.NewTokenManager("middleware-secret", time.Hour)
	other := auth.NewTokenManager("someone-else", time.Hour)

	app := fiber.New()
	app.Get("/me", Protected(tokens), func(c *fiber.Ctx) error {
		return c.SendString(AccountID(c))
	})

	good, _ := tokens.Generate("test", "Tester")
	forged, _ := other.Generate("test", "Tester")

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"forged token", "Bearer " + forged, fiber.StatusUnauthorized},
		{"valid token", "Bearer " + good, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", resp.StatusCode, tt.status)
			}
		})
	}
}
