package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

// SignupRequest defines the expected JSON body for signup
type SignupRequest struct {
	ID          string `json:"id"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest defines the expected JSON body for login
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// AuthResponse defines the JSON response for successful auth
type AuthResponse struct {
	Token    string         `json:"token"`
	Account  models.Account `json:"account"`
	IssuedAt time.Time      `json:"issued_at"`
}

// Signup handles account registration.
func (h *Handler) Signup(c *fiber.Ctx) error {
	req := new(SignupRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		req.DisplayName = req.ID
	}

	acc, err := h.engine.Register(c.UserContext(), req.ID, req.Password, req.DisplayName)
	if err != nil && acc.ID == "" {
		return h.fail(c, err, nil)
	}
	if err != nil {
		// Registered in memory; the next successful save persists it.
		h.logger.Warn("Account registered but not persisted", zap.String("account", acc.ID), zap.Error(err))
	}
	return h.issueToken(c, fiber.StatusCreated, acc)
}

// Login handles account authentication.
func (h *Handler) Login(c *fiber.Ctx) error {
	req := new(LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if strings.TrimSpace(req.ID) == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID and password cannot be empty"})
	}

	acc, err := h.engine.Authenticate(req.ID, req.Password)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return h.issueToken(c, fiber.StatusOK, acc)
}

func (h *Handler) issueToken(c *fiber.Ctx, status int, acc models.Account) error {
	token, err := h.tokens.Generate(acc.ID, acc.DisplayName)
	if err != nil {
		h.logger.Error("Error generating JWT", zap.String("account", acc.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}
	return c.Status(status).JSON(AuthResponse{
		Token:    token,
		Account:  acc,
		IssuedAt: time.Now(),
	})
}
