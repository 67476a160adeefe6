package ticker

import (
	"sync"

	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

// PriceUpdate represents a single price update for a symbol.
type PriceUpdate struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	ChangePct float64 `json:"change_pct"`
	Quantity  int64   `json:"quantity"` // size of the fill that moved the price
	Ts        int64   `json:"ts"`       // Unix timestamp milliseconds
}

// Feed turns fills into PriceUpdates and keeps the last traded price per symbol.
type Feed struct {
	mu            sync.RWMutex
	currentPrices map[string]int64
	updates       chan PriceUpdate
	logger        *zap.Logger
}

func NewFeed(logger *zap.Logger, buffer int) *Feed {
	if buffer <= 0 {
		buffer = 100
	}
	return &Feed{
		currentPrices: make(map[string]int64),
		updates:       make(chan PriceUpdate, buffer),
		logger:        logger,
	}
}

// Seed sets the starting prices without emitting updates.
func (f *Feed) Seed(entries []models.MarketEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		f.currentPrices[e.Symbol] = e.Price
	}
}

// Notify records the fill and publishes an update. It never blocks: when the channel
// is full the update is dropped.
func (f *Feed) Notify(trade models.TradeRecord, entry models.MarketEntry) {
	f.mu.Lock()
	f.currentPrices[entry.Symbol] = entry.Price
	f.mu.Unlock()

	update := PriceUpdate{
		Symbol:    entry.Symbol,
		Name:      entry.Name,
		Price:     entry.Price,
		ChangePct: entry.ChangePct,
		Quantity:  trade.Quantity,
		Ts:        trade.Time.UnixMilli(),
	}
	select {
	case f.updates <- update:
	default:
		f.logger.Warn("Price update channel full, dropping update", zap.String("symbol", entry.Symbol))
	}
}

// Updates is the stream of price updates.
func (f *Feed) Updates() <-chan PriceUpdate {
	return f.updates
}

// CurrentPrices returns a copy of the current prices.
func (f *Feed) CurrentPrices() map[string]int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	pricesCopy := make(map[string]int64, len(f.currentPrices))
	for k, v := range f.currentPrices {
		pricesCopy[k] = v
	}
	return pricesCopy
}
