package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/user/elpisexchange/backend/internal/models"
)

var (
	ErrUnknownAccount       = errors.New("unknown account")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
)

// Ledger is the per-account LedgerState collection.
type Ledger struct {
	states map[string]*models.LedgerState
}

func New() *Ledger {
	return &Ledger{states: make(map[string]*models.LedgerState)}
}

// NewState returns the starting ledger every new account receives.
func NewState(balance decimal.Decimal, lockedSupply int64) *models.LedgerState {
	return &models.LedgerState{
		Balance:      balance,
		LockedSupply: lockedSupply,
		Portfolio:    make(map[string]models.Holding),
	}
}

// Put installs (or replaces) the state of an account.
func (l *Ledger) Put(owner string, st *models.LedgerState) {
	if st.Portfolio == nil {
		st.Portfolio = make(map[string]models.Holding)
	}
	l.states[owner] = st
}

// Get returns the live state of owner.
func (l *Ledger) Get(owner string) (*models.LedgerState, error) {
	st, ok := l.states[owner]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}
	return st, nil
}

// Has reports whether owner has a ledger.
func (l *Ledger) Has(owner string) bool {
	_, ok := l.states[owner]
	return ok
}

// Owners returns all account keys, sorted.
func (l *Ledger) Owners() []string {
	out := make([]string, 0, len(l.states))
	for k := range l.states {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Available is the quantity of symbol owner can sell: the portfolio position plus,
// for the owner's own symbol, the locked supply.
func (l *Ledger) Available(owner, symbol string) (int64, error) {
	st, err := l.Get(owner)
	if err != nil {
		return 0, err
	}
	avail := st.Portfolio[symbol].Quantity
	if symbol == owner {
		avail += st.LockedSupply
	}
	return avail, nil
}

// EscrowCash debits amount from owner's balance, failing with no change when the
// balance is short.
func (l *Ledger) EscrowCash(owner string, amount decimal.Decimal) error {
	st, err := l.Get(owner)
	if err != nil {
		return err
	}
	if st.Balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, required %s", ErrInsufficientFunds, st.Balance, amount)
	}
	st.Balance = st.Balance.Sub(amount)
	return nil
}

// EscrowShares removes quantity of symbol from owner, taking from the portfolio first
// and then, for the owner's own symbol only, from locked supply. Fails with no change
// when the available quantity is short.
func (l *Ledger) EscrowShares(owner, symbol string, quantity int64) error {
	avail, err := l.Available(owner, symbol)
	if err != nil {
		return err
	}
	if avail < quantity {
		return fmt.Errorf("%w: %s holds %d %s, required %d", ErrInsufficientHoldings, owner, avail, symbol, quantity)
	}

	st := l.states[owner]
	remaining := quantity
	if h, ok := st.Portfolio[symbol]; ok {
		take := min(h.Quantity, remaining)
		h.Quantity -= take
		remaining -= take
		if h.Quantity == 0 {
			delete(st.Portfolio, symbol)
		} else {
			st.Portfolio[symbol] = h
		}
	}
	if remaining > 0 {
		st.LockedSupply -= remaining
	}
	return nil
}

// EscrowLockedSupply removes quantity from owner's unlisted supply only, leaving any
// portfolio holding of the owner's own symbol untouched.
func (l *Ledger) EscrowLockedSupply(owner string, quantity int64) error {
	st, err := l.Get(owner)
	if err != nil {
		return err
	}
	if st.LockedSupply < quantity {
		return fmt.Errorf("%w: %s has locked supply %d, required %d", ErrInsufficientHoldings, owner, st.LockedSupply, quantity)
	}
	st.LockedSupply -= quantity
	return nil
}

// Credit adds amount to owner's balance.
func (l *Ledger) Credit(owner string, amount decimal.Decimal) error {
	st, err := l.Get(owner)
	if err != nil {
		return err
	}
	st.Balance = st.Balance.Add(amount)
	return nil
}

// Acquire adds a fill to owner's position and re-derives the average cost.
func (l *Ledger) Acquire(owner, symbol string, quantity, price int64) error {
	st, err := l.Get(owner)
	if err != nil {
		return err
	}
	h, ok := st.Portfolio[symbol]
	if !ok {
		st.Portfolio[symbol] = models.Holding{Quantity: quantity, AverageCost: price}
		return nil
	}
	st.Portfolio[symbol] = models.Holding{
		Quantity:    h.Quantity + quantity,
		AverageCost: WeightedAverage(h.Quantity, h.AverageCost, quantity, price),
	}
	return nil
}

// WeightedAverage returns floor((oldQty*oldAvg + qty*price) / (oldQty+qty)).
func WeightedAverage(oldQty, oldAvg, qty, price int64) int64 {
	total := oldQty + qty
	if total == 0 {
		return 0
	}
	return (oldQty*oldAvg + qty*price) / total
}

// Snapshot returns deep copies of every state.
func (l *Ledger) Snapshot() map[string]*models.LedgerState {
	out := make(map[string]*models.LedgerState, len(l.states))
	for k, st := range l.states {
		out[k] = st.Clone()
	}
	return out
}
