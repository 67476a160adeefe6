package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/user/elpisexchange/backend/internal/middleware"
	"github.com/user/elpisexchange/backend/internal/models"
)

// CreateOrderRequest defines the expected JSON body for creating an order
type CreateOrderRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"` // "BUY" or "SELL", case-insensitive
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// CreateOrder submits a limit order for the authenticated account.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	owner := middleware.AccountID(c)

	req := new(CreateOrderRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	side := models.Side(strings.ToUpper(strings.TrimSpace(req.Side)))
	symbol := strings.TrimSpace(req.Symbol)

	result, err := h.engine.Submit(c.UserContext(), side, symbol, req.Price, req.Quantity, owner)
	if err != nil {
		return h.fail(c, err, result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetOpenOrders lists the authenticated account's resting orders.
func (h *Handler) GetOpenOrders(c *fiber.Ctx) error {
	return c.JSON(h.engine.OpenOrders(middleware.AccountID(c)))
}

// GetMyTrades lists trades the authenticated account took part in, newest first.
func (h *Handler) GetMyTrades(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(h.engine.TradesOf(middleware.AccountID(c), limit))
}

// RewardResponse is the outcome of a daily reward claim.
type RewardResponse struct {
	Granted bool            `json:"granted"`
	Amount  decimal.Decimal `json:"amount"`
}

func (h *Handler) ClaimReward(c *fiber.Ctx) error {
	granted, amount, err := h.engine.ClaimDailyReward(c.UserContext(), middleware.AccountID(c))
	resp := RewardResponse{Granted: granted, Amount: amount}
	if err != nil {
		return h.fail(c, err, resp)
	}
	return c.JSON(resp)
}

// ListingRequest offers part of the caller's locked supply on their own symbol.
type ListingRequest struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

func (h *Handler) ListSymbol(c *fiber.Ctx) error {
	req := new(ListingRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}

	result, err := h.engine.ListSymbol(c.UserContext(), middleware.AccountID(c), req.Price, req.Quantity)
	if err != nil {
		return h.fail(c, err, result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
