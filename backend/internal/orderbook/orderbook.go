package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/user/elpisexchange/backend/internal/models"
)

// priceLevel is the FIFO queue of resting orders at one price on one side.
type priceLevel struct {
	price  int64
	orders []*models.RestingOrder
}

// OrderBook represents the order book for a single symbol.
type OrderBook struct {
	symbol string
	mu     sync.RWMutex
	bids   []*priceLevel // Sorted descending by price
	asks   []*priceLevel // Sorted ascending by price

	orders map[uuid.UUID]*models.RestingOrder
}

// NewOrderBook creates a new order book for a given symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		symbol: symbol,
		bids:   make([]*priceLevel, 0),
		asks:   make([]*priceLevel, 0),
		orders: make(map[uuid.UUID]*models.RestingOrder),
	}
}

// Fill is one match between the incoming order and a resting order.
type Fill struct {
	MakerOrderID uuid.UUID
	MakerOwner   string
	Price        int64 // always the resting order's price
	Quantity     int64
}

// Match walks the opposing side in price priority and fills the incoming order
// against every eligible resting order not owned by owner. Resting quantities are
// decremented in place and exhausted orders are purged once, after the walk.
// It returns the fills in execution order and the unmatched quantity.
func (ob *OrderBook) Match(side models.Side, limit, quantity int64, owner string) ([]Fill, int64) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	fills := make([]Fill, 0)
	remaining := quantity

	levels := ob.asks
	crosses := func(p int64) bool { return p <= limit }
	if side == models.Sell {
		levels = ob.bids
		crosses = func(p int64) bool { return p >= limit }
	}

	for _, lvl := range levels {
		if remaining == 0 || !crosses(lvl.price) {
			break
		}
		for _, resting := range lvl.orders {
			if remaining == 0 {
				break
			}
			if resting.Owner == owner || resting.Quantity == 0 {
				continue
			}
			qty := min(remaining, resting.Quantity)
			fills = append(fills, Fill{
				MakerOrderID: resting.ID,
				MakerOwner:   resting.Owner,
				Price:        resting.Price,
				Quantity:     qty,
			})
			resting.Quantity -= qty
			remaining -= qty
		}
	}

	if len(fills) > 0 {
		ob.purge()
	}
	return fills, remaining
}

// Add rests an order at the back of its price level's queue.
func (ob *OrderBook) Add(order *models.RestingOrder) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if order.Symbol != ob.symbol {
		return fmt.Errorf("order symbol %s does not match book symbol %s", order.Symbol, ob.symbol)
	}
	if order.Quantity <= 0 || order.Price <= 0 {
		return fmt.Errorf("order %s has non-positive price or quantity", order.ID)
	}
	if _, exists := ob.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists in the book", order.ID)
	}

	ob.orders[order.ID] = order
	if order.Side == models.Buy {
		ob.bids = insertLevel(ob.bids, order, func(p int64) bool { return p <= order.Price })
	} else {
		ob.asks = insertLevel(ob.asks, order, func(p int64) bool { return p >= order.Price })
	}
	return nil
}

// insertLevel appends order to the level at its price, creating the level at the
// first index where atOrPast holds if it does not exist yet.
func insertLevel(levels []*priceLevel, order *models.RestingOrder, atOrPast func(int64) bool) []*priceLevel {
	i := sort.Search(len(levels), func(j int) bool { return atOrPast(levels[j].price) })
	if i < len(levels) && levels[i].price == order.Price {
		levels[i].orders = append(levels[i].orders, order)
		return levels
	}
	levels = append(levels, nil)
	copy(levels[i+1:], levels[i:])
	levels[i] = &priceLevel{price: order.Price, orders: []*models.RestingOrder{order}}
	return levels
}

// purge drops zero-quantity orders and empty levels on both sides.
func (ob *OrderBook) purge() {
	ob.bids = ob.purgeSide(ob.bids)
	ob.asks = ob.purgeSide(ob.asks)
}

func (ob *OrderBook) purgeSide(levels []*priceLevel) []*priceLevel {
	kept := levels[:0]
	for _, lvl := range levels {
		live := lvl.orders[:0]
		for _, o := range lvl.orders {
			if o.Quantity > 0 {
				live = append(live, o)
			} else {
				delete(ob.orders, o.ID)
			}
		}
		lvl.orders = live
		if len(lvl.orders) > 0 {
			kept = append(kept, lvl)
		}
	}
	for i := len(kept); i < len(levels); i++ {
		levels[i] = nil
	}
	return kept
}

// Orders returns copies of every resting order, bids first, each side in priority order.
func (ob *OrderBook) Orders() []models.RestingOrder {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	out := make([]models.RestingOrder, 0, len(ob.orders))
	for _, side := range [][]*priceLevel{ob.bids, ob.asks} {
		for _, lvl := range side {
			for _, o := range lvl.orders {
				out = append(out, *o)
			}
		}
	}
	return out
}

// Len returns the number of resting orders.
func (ob *OrderBook) Len() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return len(ob.orders)
}

// BookLevel is one aggregated price level.
type BookLevel struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
	Orders   int   `json:"orders"`
}

// OrderBookDepth is the aggregated view of both sides of one symbol's book.
type OrderBookDepth struct {
	Symbol string      `json:"symbol"`
	Bids   []BookLevel `json:"bids"` // best (highest) first
	Asks   []BookLevel `json:"asks"` // best (lowest) first
}

// GetDepth aggregates quantities at each price level, truncated to maxLevels per side
// when maxLevels > 0.
func (ob *OrderBook) GetDepth(maxLevels int) *OrderBookDepth {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return &OrderBookDepth{
		Symbol: ob.symbol,
		Bids:   aggregate(ob.bids, maxLevels),
		Asks:   aggregate(ob.asks, maxLevels),
	}
}

func aggregate(levels []*priceLevel, maxLevels int) []BookLevel {
	out := make([]BookLevel, 0, len(levels))
	for _, lvl := range levels {
		if maxLevels > 0 && len(out) == maxLevels {
			break
		}
		var total int64
		for _, o := range lvl.orders {
			total += o.Quantity
		}
		out = append(out, BookLevel{Price: lvl.price, Quantity: total, Orders: len(lvl.orders)})
	}
	return out
}
