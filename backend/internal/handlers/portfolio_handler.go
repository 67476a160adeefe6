package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/user/elpisexchange/backend/internal/middleware"
	"github.com/user/elpisexchange/backend/internal/models"
)

// MeResponse combines the account with its ledger.
type MeResponse struct {
	Account models.Account      `json:"account"`
	Ledger  *models.LedgerState `json:"ledger"`
}

// GetMe returns the authenticated account's balance, locked supply and portfolio.
func (h *Handler) GetMe(c *fiber.Ctx) error {
	owner := middleware.AccountID(c)
	acc, err := h.engine.Account(owner)
	if err != nil {
		return h.fail(c, err, nil)
	}
	ledger, err := h.engine.Ledger(owner)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(MeResponse{Account: acc, Ledger: ledger})
}

type ProfileRequest struct {
	Vision     string `json:"vision"`
	SocialLink string `json:"social_link"`
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	req := new(ProfileRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	profile, err := h.engine.UpdateProfile(c.UserContext(), middleware.AccountID(c), req.Vision, req.SocialLink)
	if err != nil {
		return h.fail(c, err, profile)
	}
	return c.JSON(profile)
}

func (h *Handler) GetMessages(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	if _, err := h.engine.Market(symbol); err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(h.engine.Messages(symbol))
}

type MessageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) PostMessage(c *fiber.Ctx) error {
	req := new(MessageRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	msg, err := h.engine.PostMessage(c.UserContext(), middleware.AccountID(c), c.Params("symbol"), req.Text)
	if err != nil {
		return h.fail(c, err, msg)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) GetInterests(c *fiber.Ctx) error {
	return c.JSON(h.engine.Interests())
}

type InterestRequest struct {
	Symbol string `json:"symbol"`
}

func (h *Handler) AddInterest(c *fiber.Ctx) error {
	req := new(InterestRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if err := h.engine.AddInterest(c.UserContext(), req.Symbol); err != nil {
		return h.fail(c, err, h.engine.Interests())
	}
	return c.JSON(h.engine.Interests())
}
