package exchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/elpisexchange/backend/internal/auth"
	"github.com/user/elpisexchange/backend/internal/ledger"
	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

// Register creates an account with the starting ledger.
func (e *Engine) Register(ctx context.Context, id, password, displayName string) (models.Account, error) {
	id = strings.TrimSpace(id)
	displayName = strings.TrimSpace(displayName)
	if id == "" || password == "" || displayName == "" {
		return models.Account{}, fmt.Errorf("%w: id, password and display name are required", ErrInvalidInput)
	}

	// Hash before taking the lock; bcrypt is slow on purpose.
	hash, err := auth.HashPassword(password, e.passwordCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Accounts[id]; ok {
		return models.Account{}, fmt.Errorf("%w: %s", ErrAccountExists, id)
	}
	// An account id doubles as its listing symbol, so it must not shadow a market.
	if e.state.Markets.Has(id) {
		return models.Account{}, fmt.Errorf("%w: %s is a listed symbol", ErrAccountExists, id)
	}
	acc := models.Account{ID: id, DisplayName: displayName, Password: hash}
	e.state.Accounts[id] = acc
	e.state.Ledger.Put(id, ledger.NewState(StartingBalance, StartingLockedSupply))
	e.logger.Info("Account registered", zap.String("account", id))

	return acc, e.save(ctx)
}

// Authenticate checks a password against the stored credential.
func (e *Engine) Authenticate(id, password string) (models.Account, error) {
	e.mu.Lock()
	acc, ok := e.state.Accounts[id]
	e.mu.Unlock()

	if !ok || !auth.CheckPasswordHash(password, acc.Password) {
		return models.Account{}, ErrInvalidCredentials
	}
	return acc, nil
}

func (e *Engine) UpdateProfile(ctx context.Context, owner, vision, socialLink string) (models.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.state.Ledger.Get(owner)
	if err != nil {
		return models.Profile{}, err
	}
	st.Profile = models.Profile{Vision: vision, SocialLink: socialLink}
	return st.Profile, e.save(ctx)
}

// PostMessage prepends a message to the board of symbol.
func (e *Engine) PostMessage(ctx context.Context, owner, symbol, text string) (models.BoardMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.BoardMessage{}, ErrEmptyMessage
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.state.Markets.Get(symbol); err != nil {
		return models.BoardMessage{}, err
	}
	if _, ok := e.state.Accounts[owner]; !ok {
		return models.BoardMessage{}, fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}
	msg := models.BoardMessage{Symbol: symbol, Author: owner, Text: text, Time: e.clock.Now()}
	e.state.Messages = append([]models.BoardMessage{msg}, e.state.Messages...)
	return msg, e.save(ctx)
}

// AddInterest appends symbol to the symbols-of-interest list. Existing entries are a no-op.
func (e *Engine) AddInterest(ctx context.Context, symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Markets.AddInterest(symbol) {
		return nil
	}
	return e.save(ctx)
}

// ListSymbol lists owner's own symbol and offers quantity shares of its locked supply
// at price. The offer is matched like any SELL, so resting bids at or above price fill
// immediately.
func (e *Engine) ListSymbol(ctx context.Context, owner string, price, quantity int64) (SubmitResult, error) {
	if price <= 0 || quantity <= 0 {
		return SubmitResult{}, fmt.Errorf("%w: price=%d quantity=%d", ErrInvalidOrder, price, quantity)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.state.Accounts[owner]
	if !ok {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrUnknownAccount, owner)
	}
	// Listed shares come out of locked supply only; portfolio shares of the owner's
	// own symbol stay put.
	if err := e.state.Ledger.EscrowLockedSupply(owner, quantity); err != nil {
		return SubmitResult{}, err
	}

	entry, created := e.state.Markets.List(owner, acc.DisplayName, price)
	if created {
		e.logger.Info("Symbol listed", zap.String("symbol", owner), zap.Int64("price", price))
	}
	return e.matchAndRest(ctx, entry, models.Sell, price, quantity, owner)
}
