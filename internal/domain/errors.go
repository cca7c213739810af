package domain

import "errors"

// Sentinel errors surfaced by the simulator core. Callers match them with
// errors.Is; the HTTP layer maps them onto status codes.
var (
	// ErrInvalidQuantity means the order's share count is zero or negative.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrInvalidPrice means a limit/stop order carries a non-positive
	// trigger price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidOrder means the order's side or kind is not a recognized
	// value.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInsufficientFunds means a buy's notional exceeds available cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientShares means a sell exceeds the held share count.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrNoPriceData means no tick has been produced yet for the symbol.
	ErrNoPriceData = errors.New("no price data")

	// ErrQuoteUnavailable means the external quote source failed at the
	// transport or parse level. It never escapes the price feed.
	ErrQuoteUnavailable = errors.New("quote source unavailable")

	// ErrUnknownSymbol means the symbol is not in the configured tradable set.
	ErrUnknownSymbol = errors.New("unknown symbol")
)
