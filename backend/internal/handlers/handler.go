package handlers

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/user/elpisexchange/backend/internal/auth"
	"github.com/user/elpisexchange/backend/internal/exchange"
	"github.com/user/elpisexchange/backend/internal/middleware"
	"github.com/user/elpisexchange/backend/internal/snapshot"
	ws "github.com/user/elpisexchange/backend/internal/websocket"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of one Engine.
type Handler struct {
	engine      *exchange.Engine
	tokens      *auth.TokenManager
	hub         *ws.Hub
	logger      *zap.Logger
	depthLevels int
}

func New(engine *exchange.Engine, tokens *auth.TokenManager, hub *ws.Hub, logger *zap.Logger, depthLevels int) *Handler {
	return &Handler{engine: engine, tokens: tokens, hub: hub, logger: logger, depthLevels: depthLevels}
}

// RegisterRoutes mounts every route on app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", h.Signup)
	authGroup.Post("/login", h.Login)

	api.Get("/markets", h.GetMarkets)
	api.Get("/markets/:symbol", h.GetMarket)
	api.Get("/markets/:symbol/messages", h.GetMessages)
	api.Get("/book/:symbol", h.GetOrderBook)
	api.Get("/trades", h.GetTrades)
	api.Get("/interests", h.GetInterests)

	protected := middleware.Protected(h.tokens)
	api.Get("/me", protected, h.GetMe)
	api.Post("/orders", protected, h.CreateOrder)
	api.Get("/orders", protected, h.GetOpenOrders)
	api.Get("/trades/me", protected, h.GetMyTrades)
	api.Post("/reward", protected, h.ClaimReward)
	api.Post("/listing", protected, h.ListSymbol)
	api.Put("/profile", protected, h.UpdateProfile)
	api.Post("/markets/:symbol/messages", protected, h.PostMessage)
	api.Post("/interests", protected, h.AddInterest)

	if h.hub != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/prices", websocket.New(h.PriceWSEndpoint))
	}
}

// errorStatus maps engine errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, exchange.ErrInvalidOrder),
		errors.Is(err, exchange.ErrInvalidInput),
		errors.Is(err, exchange.ErrEmptyMessage):
		return fiber.StatusBadRequest
	case errors.Is(err, exchange.ErrInsufficientFunds),
		errors.Is(err, exchange.ErrInsufficientHoldings):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, exchange.ErrUnknownSymbol),
		errors.Is(err, exchange.ErrUnknownAccount):
		return fiber.StatusNotFound
	case errors.Is(err, exchange.ErrAccountExists):
		return fiber.StatusConflict
	case errors.Is(err, exchange.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, snapshot.ErrTransient):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as JSON. When the operation went through but was not persisted,
// result is included so the client still sees what happened.
func (h *Handler) fail(c *fiber.Ctx, err error, result interface{}) error {
	status := errorStatus(err)
	body := fiber.Map{"error": err.Error()}
	switch status {
	case fiber.StatusServiceUnavailable:
		if result != nil {
			body["result"] = result
		}
		h.logger.Warn("Operation not persisted", zap.String("path", c.Path()), zap.Error(err))
	case fiber.StatusInternalServerError:
		h.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		body["error"] = "Internal server error"
	}
	return c.Status(status).JSON(body)
}
