// Package domain holds the shared types for the market simulator: price
// ticks, orders, and the portfolio, plus the sentinel errors every layer
// reports against.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// OrderKind distinguishes immediate from resting orders.
type OrderKind string

const (
	OrderKindMarket OrderKind = "market"
	OrderKindLimit  OrderKind = "limit"
	OrderKindStop   OrderKind = "stop"
)

// PricePoint is a single timestamped price observation for a symbol.
// Immutable once created.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is a trade request. Market orders execute immediately against the
// latest tick; limit and stop orders rest in the order book until a tick
// price satisfies their trigger condition.
type Order struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Kind       OrderKind `json:"kind"`
	Qty        int64     `json:"qty"`
	LimitPrice float64   `json:"limit_price,omitempty"`
	StopPrice  float64   `json:"stop_price,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the order's side, kind, quantity and, for resting kinds,
// the trigger price. It returns the sentinel for the first violation found.
func (o *Order) Validate() error {
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidOrder
	}
	if o.Qty <= 0 {
		return ErrInvalidQuantity
	}
	switch o.Kind {
	case OrderKindMarket:
	case OrderKindLimit:
		if o.LimitPrice <= 0 {
			return ErrInvalidPrice
		}
	case OrderKindStop:
		if o.StopPrice <= 0 {
			return ErrInvalidPrice
		}
	default:
		return ErrInvalidOrder
	}
	return nil
}

// Portfolio is the cash/position ledger state. Positions holds whole share
// counts keyed by symbol; a missing entry means zero shares.
type Portfolio struct {
	Cash      decimal.Decimal  `json:"cash"`
	Positions map[string]int64 `json:"positions"`
}

// NewPortfolio returns an empty portfolio holding the given starting cash.
func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]int64),
	}
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the live position map.
func (p *Portfolio) Clone() *Portfolio {
	positions := make(map[string]int64, len(p.Positions))
	for sym, qty := range p.Positions {
		positions[sym] = qty
	}
	return &Portfolio{Cash: p.Cash, Positions: positions}
}
