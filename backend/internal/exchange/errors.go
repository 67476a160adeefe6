package exchange

import (
	"errors"

	"github.com/user/elpisexchange/backend/internal/ledger"
	"github.com/user/elpisexchange/backend/internal/market"
)

var (
	ErrInsufficientFunds    = ledger.ErrInsufficientFunds
	ErrInsufficientHoldings = ledger.ErrInsufficientHoldings
	ErrUnknownAccount       = ledger.ErrUnknownAccount
	ErrUnknownSymbol        = market.ErrUnknownSymbol

	ErrInvalidOrder       = errors.New("invalid order")
	ErrInvalidInput       = errors.New("invalid input")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid account id or password")
	ErrEmptyMessage       = errors.New("message cannot be empty")
)
