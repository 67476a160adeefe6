package market

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/user/elpisexchange/backend/internal/models"
)

var ErrUnknownSymbol = errors.New("unknown symbol")

// Registry maps symbols to their MarketEntry and keeps the symbols-of-interest list.
type Registry struct {
	entries   map[string]*models.MarketEntry
	interests []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*models.MarketEntry)}
}

// Put installs an entry as-is (hydration from a snapshot).
func (r *Registry) Put(e *models.MarketEntry) {
	if len(e.History) == 0 {
		e.History = []int64{e.Price}
	}
	r.entries[e.Symbol] = e
}

// Get returns the live entry for symbol.
func (r *Registry) Get(symbol string) (*models.MarketEntry, error) {
	e, ok := r.entries[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return e, nil
}

func (r *Registry) Has(symbol string) bool {
	_, ok := r.entries[symbol]
	return ok
}

// List creates the entry for symbol when it does not exist yet and reports whether
// it did. An existing entry is left untouched.
func (r *Registry) List(symbol, name string, price int64) (*models.MarketEntry, bool) {
	if e, ok := r.entries[symbol]; ok {
		return e, false
	}
	e := &models.MarketEntry{
		Symbol:  symbol,
		Name:    name,
		Price:   price,
		History: []int64{price},
	}
	r.entries[symbol] = e
	return e, true
}

// RecordFill makes price the last traded price of symbol, recomputes the change
// against the first recorded price and appends price to the history.
func (r *Registry) RecordFill(symbol string, price int64) (*models.MarketEntry, error) {
	e, err := r.Get(symbol)
	if err != nil {
		return nil, err
	}
	e.Price = price
	e.ChangePct = ChangePct(e.History[0], price)
	e.History = append(e.History, price)
	return e, nil
}

// ChangePct is the percent move from base to price, rounded to two decimals.
func ChangePct(base, price int64) float64 {
	if base == 0 {
		return 0
	}
	pct := float64(price-base) / float64(base) * 100
	return math.Round(pct*100) / 100
}

// All returns copies of every entry sorted by symbol.
func (r *Registry) All() []models.MarketEntry {
	out := make([]models.MarketEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Snapshot returns deep copies keyed by symbol.
func (r *Registry) Snapshot() map[string]*models.MarketEntry {
	out := make(map[string]*models.MarketEntry, len(r.entries))
	for k, e := range r.entries {
		out[k] = e.Clone()
	}
	return out
}

// SetInterests replaces the symbols-of-interest list.
func (r *Registry) SetInterests(symbols []string) {
	r.interests = append([]string(nil), symbols...)
}

// AddInterest appends symbol to the interest list and reports whether it was new.
func (r *Registry) AddInterest(symbol string) bool {
	for _, s := range r.interests {
		if s == symbol {
			return false
		}
	}
	r.interests = append(r.interests, symbol)
	return true
}

func (r *Registry) Interests() []string {
	return append([]string(nil), r.interests...)
}
