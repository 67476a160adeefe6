package orderbook

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

// Manager holds and manages one OrderBook per symbol and hands out the book-wide
// insertion sequence that orders FIFO queues.
type Manager struct {
	mu      sync.RWMutex
	books   map[string]*OrderBook
	nextSeq uint64
	logger  *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		books:   make(map[string]*OrderBook),
		nextSeq: 1,
		logger:  logger,
	}
}

// GetOrCreateBook retrieves an existing order book or creates a new one for the symbol.
func (m *Manager) GetOrCreateBook(symbol string) *OrderBook {
	m.mu.RLock()
	book, exists := m.books[symbol]
	m.mu.RUnlock()

	if exists {
		return book
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check in case it was created between RUnlock and Lock
	book, exists = m.books[symbol]
	if exists {
		return book
	}

	m.logger.Debug("Creating new order book", zap.String("symbol", symbol))
	book = NewOrderBook(symbol)
	m.books[symbol] = book
	return book
}

// Match runs the incoming order against the symbol's opposing side.
func (m *Manager) Match(symbol string, side models.Side, limit, quantity int64, owner string) ([]Fill, int64) {
	return m.GetOrCreateBook(symbol).Match(side, limit, quantity, owner)
}

// Rest places a new resting order with a fresh ID at the back of its price level.
func (m *Manager) Rest(symbol string, side models.Side, price, quantity int64, owner string) (*models.RestingOrder, error) {
	m.mu.Lock()
	seq := m.nextSeq
	m.nextSeq++
	m.mu.Unlock()

	order := &models.RestingOrder{
		ID:       uuid.New(),
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Owner:    owner,
		Seq:      seq,
	}
	if err := m.GetOrCreateBook(symbol).Add(order); err != nil {
		return nil, err
	}
	return order, nil
}

// Restore rebuilds the books from persisted orders. Orders are re-queued in Seq order
// so FIFO priority at each price level survives a restart; orders persisted without a
// sequence keep their list position.
func (m *Manager) Restore(orders []models.RestingOrder) error {
	sorted := make([]models.RestingOrder, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	for i := range sorted {
		o := sorted[i]
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		m.mu.Lock()
		if o.Seq == 0 || o.Seq < m.nextSeq {
			o.Seq = m.nextSeq
		}
		m.nextSeq = o.Seq + 1
		m.mu.Unlock()

		if err := m.GetOrCreateBook(o.Symbol).Add(&o); err != nil {
			return fmt.Errorf("restore order %s: %w", o.ID, err)
		}
	}
	m.logger.Info("Order books restored", zap.Int("orders", len(sorted)))
	return nil
}

// AllOrders returns every resting order across all books in insertion order.
func (m *Manager) AllOrders() []models.RestingOrder {
	m.mu.RLock()
	books := make([]*OrderBook, 0, len(m.books))
	for _, b := range m.books {
		books = append(books, b)
	}
	m.mu.RUnlock()

	out := make([]models.RestingOrder, 0)
	for _, b := range books {
		out = append(out, b.Orders()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// OrdersOf returns the resting orders owned by owner in insertion order.
func (m *Manager) OrdersOf(owner string) []models.RestingOrder {
	out := make([]models.RestingOrder, 0)
	for _, o := range m.AllOrders() {
		if o.Owner == owner {
			out = append(out, o)
		}
	}
	return out
}

// GetBookDepth returns the depth for a specific symbol.
func (m *Manager) GetBookDepth(symbol string, maxLevels int) *OrderBookDepth {
	return m.GetOrCreateBook(symbol).GetDepth(maxLevels)
}
