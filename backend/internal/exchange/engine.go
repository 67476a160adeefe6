package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/elpisexchange/backend/internal/auth"
	"github.com/user/elpisexchange/backend/internal/clock"
	"github.com/user/elpisexchange/backend/internal/models"
	"github.com/user/elpisexchange/backend/internal/snapshot"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultRewardAmount is the daily credit granted by ClaimDailyReward.
var DefaultRewardAmount = decimal.NewFromInt(100000)

// Config tunes an Engine. Zero values pick the defaults.
type Config struct {
	RewardAmount decimal.Decimal
	PasswordCost int // bcrypt cost for new credentials
	Clock        clock.Clock
	Notifiers    []Notifier
}

// Engine is the matching and ledger engine. It exclusively owns one State and runs
// every operation start-to-finish under a single lock.
type Engine struct {
	mu        sync.Mutex
	state     *State
	store     snapshot.Store
	clock     clock.Clock
	logger    *zap.Logger
	notifiers []Notifier

	rewardAmount decimal.Decimal
	passwordCost int
}

// Open loads the document from store and hydrates the engine from it. When the store
// has never been written, or the load fails for any reason, the deterministic seed
// state is materialized instead. The seed is only saved into a never-written store;
// after a failed load the stored document is left alone until the first mutation.
func Open(ctx context.Context, store snapshot.Store, logger *zap.Logger, cfg Config) (*Engine, error) {
	e := &Engine{
		store:        store,
		clock:        cfg.Clock,
		logger:       logger,
		notifiers:    cfg.Notifiers,
		rewardAmount: cfg.RewardAmount,
		passwordCost: cfg.PasswordCost,
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if !e.rewardAmount.IsPositive() {
		e.rewardAmount = DefaultRewardAmount
	}
	if e.passwordCost == 0 {
		e.passwordCost = bcrypt.DefaultCost
	}

	doc, err := store.Load(ctx)
	neverWritten := err == nil && doc == nil
	if err != nil {
		logger.Warn("Snapshot load failed, falling back to seed data", zap.Error(err))
		doc = nil
	}

	if doc != nil {
		st, err := stateFromDocument(doc, logger)
		if err == nil {
			e.state = st
			logger.Info("Exchange state loaded from snapshot",
				zap.Int("accounts", len(st.Accounts)),
				zap.Int("markets", len(doc.Markets)),
				zap.Int("orders", len(doc.Orders)),
				zap.Time("saved_at", doc.SavedAt))
			return e, nil
		}
		logger.Warn("Snapshot could not be hydrated, falling back to seed data", zap.Error(err))
	}

	st, err := seedState(logger, e.passwordCost, auth.HashPassword)
	if err != nil {
		return nil, err
	}
	e.state = st
	logger.Info("Exchange bootstrapped from seed data", zap.Bool("persisted", neverWritten))
	if !neverWritten {
		return e, nil
	}
	if err := e.save(ctx); err != nil {
		logger.Warn("Seed state not persisted", zap.Error(err))
	}
	return e, nil
}

// SubmitResult is the outcome of an accepted submission.
type SubmitResult struct {
	Accepted bool                 `json:"accepted"`
	Message  string               `json:"message"`
	Filled   int64                `json:"filled"`
	Resting  int64                `json:"resting"`
	Order    *models.RestingOrder `json:"order,omitempty"` // residual, when one rests
	Fills    []models.TradeRecord `json:"fills"`
}

// Submit accepts a limit order from owner, escrows the committed cash or shares,
// matches it against the opposing side of the book and rests any residual.
//
// A failed precondition returns an error and changes nothing. Once accepted, the
// mutation stands even if persisting it fails; that case returns the result together
// with an error wrapping snapshot.ErrTransient.
func (e *Engine) Submit(ctx context.Context, side models.Side, symbol string, price, quantity int64, owner string) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submit(ctx, side, symbol, price, quantity, owner)
}

func (e *Engine) submit(ctx context.Context, side models.Side, symbol string, price, quantity int64, owner string) (SubmitResult, error) {
	if !side.Valid() || price <= 0 || quantity <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: side=%q price=%d quantity=%d", ErrInvalidOrder, side, price, quantity)
	}
	entry, err := e.state.Markets.Get(symbol)
	if err != nil {
		return SubmitResult{}, err
	}

	// 1. Escrow
	if side == models.Buy {
		err = e.state.Ledger.EscrowCash(owner, notional(price, quantity))
	} else {
		err = e.state.Ledger.EscrowShares(owner, symbol, quantity)
	}
	if err != nil {
		return SubmitResult{}, err
	}
	return e.matchAndRest(ctx, entry, side, price, quantity, owner)
}

// matchAndRest runs an already escrowed order against the book, settles every fill,
// rests the residual and saves.
func (e *Engine) matchAndRest(ctx context.Context, entry *models.MarketEntry, side models.Side, price, quantity int64, owner string) (SubmitResult, error) {
	symbol := entry.Symbol

	// 2-4. Scan the opposing side, fill, purge
	fills, remaining := e.state.Books.Match(symbol, side, price, quantity, owner)

	var saveErr error
	result := SubmitResult{Accepted: true, Fills: make([]models.TradeRecord, 0, len(fills))}
	for _, f := range fills {
		buyer, seller := owner, f.MakerOwner
		if side == models.Sell {
			buyer, seller = f.MakerOwner, owner
		}

		if err := e.state.Ledger.Acquire(buyer, symbol, f.Quantity, f.Price); err != nil {
			e.logger.Error("Fill could not credit shares", zap.String("buyer", buyer), zap.Error(err))
		}
		if err := e.state.Ledger.Credit(seller, notional(f.Price, f.Quantity)); err != nil {
			e.logger.Error("Fill could not credit cash", zap.String("seller", seller), zap.Error(err))
		}
		if side == models.Buy && f.Price < price {
			refund := notional(price-f.Price, f.Quantity)
			if err := e.state.Ledger.Credit(owner, refund); err != nil {
				e.logger.Error("Fill could not refund price improvement", zap.String("buyer", owner), zap.Error(err))
			}
		}

		trade := models.TradeRecord{
			ID:       uuid.New(),
			Time:     e.clock.Now(),
			Symbol:   symbol,
			Name:     entry.Name,
			Side:     side,
			Price:    f.Price,
			Quantity: f.Quantity,
			Buyer:    buyer,
			Seller:   seller,
		}
		e.state.Trades = append([]models.TradeRecord{trade}, e.state.Trades...)
		result.Fills = append(result.Fills, trade)

		if err := e.recordFill(ctx, trade); err != nil && saveErr == nil {
			saveErr = err
		}
	}

	// 5. Residual
	if remaining > 0 {
		order, err := e.state.Books.Rest(symbol, side, price, remaining, owner)
		if err != nil {
			// Rest only fails on invariants checked above.
			return result, fmt.Errorf("rest residual of %d %s: %w", remaining, symbol, err)
		}
		residual := *order
		result.Order = &residual
	}

	result.Filled = quantity - remaining
	result.Resting = remaining
	if remaining > 0 {
		result.Message = fmt.Sprintf("%d filled, %d resting", result.Filled, remaining)
	} else {
		result.Message = "fully filled"
	}

	if len(fills) > 0 {
		e.logger.Info("Order generated trades",
			zap.String("owner", owner), zap.String("symbol", symbol), zap.String("side", string(side)),
			zap.Int("trades", len(fills)), zap.Int64("filled", result.Filled), zap.Int64("resting", remaining))
	}

	// 6. Persist
	if err := e.save(ctx); err != nil && saveErr == nil {
		saveErr = err
	}
	if saveErr != nil {
		return result, fmt.Errorf("order accepted but not persisted: %w", saveErr)
	}
	return result, nil
}

// recordFill advances the symbol's price and history, notifies listeners and saves.
func (e *Engine) recordFill(ctx context.Context, trade models.TradeRecord) error {
	entry, err := e.state.Markets.RecordFill(trade.Symbol, trade.Price)
	if err != nil {
		return err
	}
	for _, n := range e.notifiers {
		n.Notify(trade, *entry.Clone())
	}
	return e.save(ctx)
}

// save flushes the whole State to the store.
func (e *Engine) save(ctx context.Context) error {
	doc := e.state.document(e.clock.Now())
	if err := e.store.Save(ctx, doc); err != nil {
		e.logger.Error("Snapshot save failed", zap.Error(err))
		if !errors.Is(err, snapshot.ErrTransient) {
			err = fmt.Errorf("%w: %v", snapshot.ErrTransient, err)
		}
		return err
	}
	return nil
}

func notional(price, quantity int64) decimal.Decimal {
	return decimal.NewFromInt(price).Mul(decimal.NewFromInt(quantity))
}
