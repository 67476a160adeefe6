package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetOrderBook returns the aggregated depth for a symbol.
func (h *Handler) GetOrderBook(c *fiber.Ctx) error {
	levels := c.QueryInt("levels", h.depthLevels)
	depth, err := h.engine.Depth(c.Params("symbol"), levels)
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(depth)
}

func (h *Handler) GetMarkets(c *fiber.Ctx) error {
	return c.JSON(h.engine.Markets())
}

func (h *Handler) GetMarket(c *fiber.Ctx) error {
	entry, err := h.engine.Market(c.Params("symbol"))
	if err != nil {
		return h.fail(c, err, nil)
	}
	return c.JSON(entry)
}

// GetTrades returns the most recent trades across all symbols.
func (h *Handler) GetTrades(c *fiber.Ctx) error {
	return c.JSON(h.engine.Trades(c.QueryInt("limit", 50)))
}
