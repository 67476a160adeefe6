package exchange

import (
	"fmt"

	"github.com/user/elpisexchange/backend/internal/models"
	"github.com/user/elpisexchange/backend/internal/orderbook"
	"github.com/user/elpisexchange/backend/internal/snapshot"
)

// Market returns a copy of the entry for symbol.
func (e *Engine) Market(symbol string) (models.MarketEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.state.Markets.Get(symbol)
	if err != nil {
		return models.MarketEntry{}, err
	}
	return *entry.Clone(), nil
}

// Markets returns every listed symbol sorted by symbol.
func (e *Engine) Markets() []models.MarketEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Markets.All()
}

func (e *Engine) Ledger(owner string) (*models.LedgerState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Ledger.Get(owner)
	if err != nil {
		return nil, err
	}
	return st.Clone(), nil
}

func (e *Engine) Account(id string) (models.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.state.Accounts[id]
	if !ok {
		return models.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return acc, nil
}

// Depth aggregates the book of symbol for display, levels per side (0 for all).
func (e *Engine) Depth(symbol string, levels int) (*orderbook.OrderBookDepth, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Markets.Has(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return e.state.Books.GetBookDepth(symbol, levels), nil
}

func (e *Engine) OpenOrders(owner string) []models.RestingOrder {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Books.OrdersOf(owner)
}

// Trades returns the newest trades first, at most limit of them (0 for all).
func (e *Engine) Trades(limit int) []models.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return headTrades(e.state.Trades, limit, nil)
}

// TradesOf returns the newest trades owner took part in.
func (e *Engine) TradesOf(owner string, limit int) []models.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return headTrades(e.state.Trades, limit, func(t models.TradeRecord) bool {
		return t.Buyer == owner || t.Seller == owner
	})
}

func headTrades(trades []models.TradeRecord, limit int, keep func(models.TradeRecord) bool) []models.TradeRecord {
	out := make([]models.TradeRecord, 0)
	for _, t := range trades {
		if limit > 0 && len(out) == limit {
			break
		}
		if keep == nil || keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Messages returns the board of symbol, newest first.
func (e *Engine) Messages(symbol string) []models.BoardMessage {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.BoardMessage, 0)
	for _, m := range e.state.Messages {
		if m.Symbol == symbol {
			out = append(out, m)
		}
	}
	return out
}

func (e *Engine) Interests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Markets.Interests()
}

// Document exports the current state as it would be saved.
func (e *Engine) Document() *snapshot.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.document(e.clock.Now())
}

