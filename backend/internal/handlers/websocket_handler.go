package handlers

import (
	"github.com/gofiber/contrib/websocket"
	ws "github.com/user/elpisexchange/backend/internal/websocket"
	"go.uber.org/zap"
)

// PriceWSEndpoint is the handler for the WebSocket price feed. The feed is public.
func (h *Handler) PriceWSEndpoint(c *websocket.Conn) {
	client := &ws.Client{
		Conn: c,
		Send: make(chan []byte, 256),
	}
	if !h.hub.Add(client) {
		return
	}
	h.logger.Debug("WebSocket connection established", zap.String("remote", c.RemoteAddr().String()))

	// contrib/websocket closes the connection when this handler returns, so the read
	// pump runs inline and the write pump in its own goroutine.
	go h.clientWritePump(client)
	h.clientReadPump(client)
}

// clientWritePump pumps messages from the hub to the websocket connection.
func (h *Handler) clientWritePump(client *ws.Client) {
	for message := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("Error writing websocket message", zap.Error(err))
			// Drain until the read pump unregisters and the hub closes Send.
			for range client.Send {
			}
			return
		}
	}
}

// clientReadPump only watches for disconnects; clients send nothing meaningful.
func (h *Handler) clientReadPump(client *ws.Client) {
	defer func() {
		h.hub.Remove(client)
	}()

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("Client disconnected unexpectedly", zap.Error(err))
			}
			return
		}
	}
}
