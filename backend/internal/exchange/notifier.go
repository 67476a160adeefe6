package exchange

import "github.com/user/elpisexchange/backend/internal/models"

// Notifier is told about every fill after the market entry has been updated.
// It is called with the engine lock held and must not block.
type Notifier interface {
	Notify(trade models.TradeRecord, entry models.MarketEntry)
}
