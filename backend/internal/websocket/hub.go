package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/user/elpisexchange/backend/internal/ticker"
	"go.uber.org/zap"
)

// Client represents a single WebSocket client connection.
type Client struct {
	Conn *websocket.Conn
	Send chan []byte // Buffered channel for outbound messages
}

// Hub manages WebSocket clients and broadcasts price updates to them.
// Only the Run goroutine touches the client set.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	snapshot   func() map[string]int64
	logger     *zap.Logger
	done       chan struct{}
}

// NewHub creates a hub. snapshot, when set, supplies the prices sent to a client on connect.
func NewHub(logger *zap.Logger, snapshot func() map[string]int64) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		snapshot:   snapshot,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's event loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("Starting WebSocket Hub...")
	defer func() {
		close(h.done)
		for client := range h.clients {
			close(client.Send)
			delete(h.clients, client)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.Register:
			h.clients[client] = true
			h.logger.Debug("Client registered", zap.Int("clients", len(h.clients)))
			h.sendInitialPrices(client)

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Debug("Client unregistered", zap.Int("clients", len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full, close connection
					h.logger.Warn("Client send buffer full, dropping client")
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Add registers client. It returns false once the hub has stopped.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Remove unregisters client; it is a no-op once the hub has stopped.
func (h *Hub) Remove(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) sendInitialPrices(client *Client) {
	if h.snapshot == nil {
		return
	}
	msg, err := json.Marshal(h.snapshot())
	if err != nil {
		h.logger.Error("Error marshalling current prices", zap.Error(err))
		return
	}
	select {
	case client.Send <- msg:
	default:
	}
}

// ListenToPriceUpdates forwards every update from updates to all clients until ctx is
// done or updates is closed.
func (h *Hub) ListenToPriceUpdates(ctx context.Context, updates <-chan ticker.PriceUpdate) {
	h.logger.Info("Hub listening for price updates...")
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msgBytes, err := json.Marshal(update)
			if err != nil {
				h.logger.Error("Error marshalling price update", zap.Error(err))
				continue
			}
			select {
			case h.broadcast <- msgBytes:
			case <-ctx.Done():
				return
			}
		}
	}
}
