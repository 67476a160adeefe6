package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/user/elpisexchange/backend/internal/ledger"
	"github.com/user/elpisexchange/backend/internal/market"
	"github.com/user/elpisexchange/backend/internal/models"
	"github.com/user/elpisexchange/backend/internal/orderbook"
	"github.com/user/elpisexchange/backend/internal/snapshot"
	"go.uber.org/zap"
)

// Starting ledger of every newly registered or seeded account.
var (
	StartingBalance = decimal.NewFromInt(10000000)
)

const StartingLockedSupply int64 = 1000000

// State is the in-memory working replica of the Document. The Engine owns it.
type State struct {
	Accounts map[string]models.Account
	Ledger   *ledger.Ledger
	Markets  *market.Registry
	Books    *orderbook.Manager
	Trades   []models.TradeRecord  // newest first
	Messages []models.BoardMessage // newest first
}

func newState(logger *zap.Logger) *State {
	return &State{
		Accounts: make(map[string]models.Account),
		Ledger:   ledger.New(),
		Markets:  market.NewRegistry(),
		Books:    orderbook.NewManager(logger),
		Trades:   make([]models.TradeRecord, 0),
		Messages: make([]models.BoardMessage, 0),
	}
}

// stateFromDocument hydrates a State. Accounts that have credentials but no ledger get
// the starting ledger.
func stateFromDocument(doc *snapshot.Document, logger *zap.Logger) (*State, error) {
	st := newState(logger)

	for id, hash := range doc.Credentials {
		name := doc.DisplayNames[id]
		if name == "" {
			name = id
		}
		st.Accounts[id] = models.Account{ID: id, DisplayName: name, Password: hash}
	}
	for id, ls := range doc.Ledgers {
		if ls == nil {
			continue
		}
		st.Ledger.Put(id, ls.Clone())
	}
	for id := range st.Accounts {
		if !st.Ledger.Has(id) {
			st.Ledger.Put(id, ledger.NewState(StartingBalance, StartingLockedSupply))
		}
	}

	for sym, e := range doc.Markets {
		if e == nil {
			continue
		}
		entry := e.Clone()
		if entry.Symbol == "" {
			entry.Symbol = sym
		}
		if entry.Price <= 0 {
			return nil, fmt.Errorf("market %s has non-positive price %d", sym, entry.Price)
		}
		st.Markets.Put(entry)
	}
	st.Markets.SetInterests(doc.Interests)

	if err := st.Books.Restore(doc.Orders); err != nil {
		return nil, err
	}

	st.Trades = append(st.Trades, doc.Trades...)
	st.Messages = append(st.Messages, doc.Messages...)
	return st, nil
}

// document exports the full State. Everything is deep-copied.
func (s *State) document(savedAt time.Time) *snapshot.Document {
	doc := &snapshot.Document{
		Version:      snapshot.SchemaVersion,
		SavedAt:      savedAt,
		Credentials:  make(map[string]string, len(s.Accounts)),
		DisplayNames: make(map[string]string, len(s.Accounts)),
		Markets:      s.Markets.Snapshot(),
		Trades:       append([]models.TradeRecord{}, s.Trades...),
		Ledgers:      s.Ledger.Snapshot(),
		Orders:       s.Books.AllOrders(),
		Interests:    s.Markets.Interests(),
		Messages:     append([]models.BoardMessage{}, s.Messages...),
	}
	for id, acc := range s.Accounts {
		doc.Credentials[id] = acc.Password
		doc.DisplayNames[id] = acc.DisplayName
	}
	return doc
}

// seedMarket is one of the symbols the exchange boots with.
type seedMarket struct {
	Symbol string
	Name   string
	Price  int64
}

var (
	seedMarkets = []seedMarket{
		{Symbol: "IU", Name: "IU", Price: 50000},
		{Symbol: "G_DRAGON", Name: "G-Dragon", Price: 45000},
	}
	seedBots = []string{"bot_1", "bot_2", "bot_3"}
)

const (
	seedAdminID       = "test"
	seedAdminPassword = "1234"
	seedAdminName     = "Tester"
)

// seedState builds the deterministic bootstrap state used when no document exists.
func seedState(logger *zap.Logger, passwordCost int, hash func(string, int) (string, error)) (*State, error) {
	st := newState(logger)

	adminHash, err := hash(seedAdminPassword, passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	st.Accounts[seedAdminID] = models.Account{ID: seedAdminID, DisplayName: seedAdminName, Password: adminHash}
	st.Ledger.Put(seedAdminID, ledger.NewState(StartingBalance, StartingLockedSupply))

	for _, bot := range seedBots {
		botHash, err := hash(bot, passwordCost)
		if err != nil {
			return nil, fmt.Errorf("hash bot password: %w", err)
		}
		st.Accounts[bot] = models.Account{ID: bot, DisplayName: bot, Password: botHash}
		st.Ledger.Put(bot, ledger.NewState(StartingBalance, StartingLockedSupply))
	}

	interests := make([]string, 0, len(seedMarkets))
	for _, m := range seedMarkets {
		st.Markets.List(m.Symbol, m.Name, m.Price)
		interests = append(interests, m.Symbol)
	}
	st.Markets.SetInterests(interests)
	return st, nil
}
