package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of an order or of the aggressor in a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Valid reports whether s is one of the two order sides.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the side an order of side s matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Account represents a registered user. Password holds the bcrypt hash.
type Account struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Password    string `json:"-"`
}

// Holding is a position in one symbol.
type Holding struct {
	Quantity    int64 `json:"quantity"`
	AverageCost int64 `json:"average_cost"`
}

// Profile holds the free-form fields a user shows on their listing page.
type Profile struct {
	Vision     string `json:"vision"`
	SocialLink string `json:"social_link"`
}

// LedgerState is everything the exchange tracks for one account.
type LedgerState struct {
	Balance      decimal.Decimal    `json:"balance"`
	LockedSupply int64              `json:"locked_supply"` // Own-symbol shares not yet released to market
	Portfolio    map[string]Holding `json:"portfolio"`
	Profile      Profile            `json:"profile"`
	LastRewardAt *time.Time         `json:"last_reward_at,omitempty"`
}

// Clone returns a deep copy safe to hand out of the engine.
func (l *LedgerState) Clone() *LedgerState {
	out := *l
	out.Portfolio = make(map[string]Holding, len(l.Portfolio))
	for sym, h := range l.Portfolio {
		out.Portfolio[sym] = h
	}
	if l.LastRewardAt != nil {
		t := *l.LastRewardAt
		out.LastRewardAt = &t
	}
	return &out
}

// MarketEntry is the tradable metadata of one symbol.
type MarketEntry struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     int64   `json:"price"`
	ChangePct float64 `json:"change_pct"`
	History   []int64 `json:"history"`
}

// Clone returns a copy with its own history slice.
func (m *MarketEntry) Clone() *MarketEntry {
	out := *m
	out.History = append([]int64(nil), m.History...)
	return &out
}

// RestingOrder is an accepted order waiting in the book.
// Seq is the book insertion sequence and is the only ordering information kept.
type RestingOrder struct {
	ID       uuid.UUID `json:"id"`
	Symbol   string    `json:"symbol"`
	Side     Side      `json:"side"`
	Price    int64     `json:"price"`
	Quantity int64     `json:"quantity"`
	Owner    string    `json:"owner"`
	Seq      uint64    `json:"seq"`
}

// TradeRecord is one executed fill.
type TradeRecord struct {
	ID       uuid.UUID `json:"id"`
	Time     time.Time `json:"time"`
	Symbol   string    `json:"symbol"`
	Name     string    `json:"name"`
	Side     Side      `json:"side"` // aggressor side
	Price    int64     `json:"price"`
	Quantity int64     `json:"quantity"`
	Buyer    string    `json:"buyer"`
	Seller   string    `json:"seller"`
}

// BoardMessage is a post on a symbol's discussion board.
type BoardMessage struct {
	Symbol string    `json:"symbol"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Time   time.Time `json:"time"`
}
