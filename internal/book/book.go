// Package book holds resting limit and stop orders per symbol and decides,
// on each tick, which of them fire.
package book

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// ErrMarketOrder is returned when a market order is submitted to the book.
// Market orders execute immediately via the ledger and never rest.
var ErrMarketOrder = errors.New("market orders do not rest in the book")

// Book is the pending-order book. Resting orders are kept per symbol in
// arrival order; evaluation preserves that order so simultaneous triggers
// execute FIFO against the ledger.
type Book struct {
	mu      sync.Mutex
	resting map[string][]domain.Order
}

// New creates an empty Book.
func New() *Book {
	return &Book{
		resting: make(map[string][]domain.Order),
	}
}

// Submit validates the order and appends it to its symbol's resting list in
// arrival order. Validation failures reject the submission with no side
// effects. A zero ID is filled with a fresh UUID.
func (b *Book) Submit(order domain.Order) (domain.Order, error) {
	if order.Kind == domain.OrderKindMarket {
		return domain.Order{}, ErrMarketOrder
	}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	b.mu.Lock()
	b.resting[order.Symbol] = append(b.resting[order.Symbol], order)
	b.mu.Unlock()

	return order, nil
}

// Evaluate scans the symbol's resting orders in insertion order and removes
// and returns those whose trigger condition holds at the current price. The
// scan and removal are atomic: no order is evaluated twice or re-triggered
// after removal.
func (b *Book) Evaluate(symbol string, currentPrice float64) []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := b.resting[symbol]
	if len(orders) == 0 {
		return nil
	}

	var triggered []domain.Order
	remaining := orders[:0]
	for _, o := range orders {
		if triggers(o, currentPrice) {
			triggered = append(triggered, o)
		} else {
			remaining = append(remaining, o)
		}
	}
	b.resting[symbol] = remaining

	return triggered
}

// Resting returns a copy of the symbol's resting orders in arrival order.
func (b *Book) Resting(symbol string) []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := b.resting[symbol]
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out
}

// All returns every resting order across symbols, grouped per symbol in
// arrival order.
func (b *Book) All() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.Order
	for _, orders := range b.resting {
		out = append(out, orders...)
	}
	return out
}

// triggers implements the resting-order trigger table:
//
//	limit buy:  price <= limit     limit sell: price >= limit
//	stop  buy:  price >= stop      stop  sell: price <= stop
func triggers(o domain.Order, price float64) bool {
	switch o.Kind {
	case domain.OrderKindLimit:
		if o.Side == domain.SideBuy {
			return price <= o.LimitPrice
		}
		return price >= o.LimitPrice
	case domain.OrderKindStop:
		if o.Side == domain.SideBuy {
			return price >= o.StopPrice
		}
		return price <= o.StopPrice
	}
	return false
}
