// Package engine coordinates the simulation cycle: price production,
// history, pending-order evaluation, and ledger mutation, in that order,
// serialized per cycle.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/book"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/feed"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/history"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/ledger"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/store"
)

// Simulator owns the shared mutable state of the simulation. One mutex
// serializes the tick cycle and order submission, so an order is either
// fully visible to the next evaluation or not submitted at all, and ledger
// mutations across symbols never interleave.
type Simulator struct {
	mu      sync.Mutex
	feed    *feed.Feed
	history *history.Store
	book    *book.Book
	ledger  *ledger.Ledger
	archive store.TickWriter // nil disables archiving

	symbols []string           // fixed at startup, sorted
	prices  map[string]float64 // latest price per symbol

	now func() time.Time
	log *slog.Logger

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan domain.PricePoint
}

// New creates a Simulator. initialPrices fixes the tradable symbol set;
// archive may be nil.
func New(
	f *feed.Feed,
	hist *history.Store,
	b *book.Book,
	l *ledger.Ledger,
	archive store.TickWriter,
	initialPrices map[string]float64,
	log *slog.Logger,
) *Simulator {
	if log == nil {
		log = slog.Default()
	}

	symbols := make([]string, 0, len(initialPrices))
	prices := make(map[string]float64, len(initialPrices))
	for symbol, price := range initialPrices {
		symbols = append(symbols, symbol)
		prices[symbol] = price
	}
	sort.Strings(symbols)

	return &Simulator{
		feed:    f,
		history: hist,
		book:    b,
		ledger:  l,
		archive: archive,
		symbols: symbols,
		prices:  prices,
		now:     time.Now,
		log:     log.With("component", "engine"),
		subs:    make(map[int]chan domain.PricePoint),
	}
}

// SetClock replaces the wall clock. Tests use it to control tick timestamps.
// Safe to call while the simulator is ticking.
func (s *Simulator) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Symbols returns the tradable symbol set in sorted order.
func (s *Simulator) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Step runs one full simulation cycle: produce a price per symbol, append
// it to history, evaluate that symbol's resting orders, and execute the
// triggered ones against the ledger in FIFO order. The whole cycle holds
// the simulator lock, so no submission or other cycle interleaves.
func (s *Simulator) Step(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.feed.Tick(ctx, s.prices)
	now := s.now()

	ticks := make([]domain.PricePoint, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		price, ok := next[symbol]
		if !ok || price <= 0 {
			continue
		}
		s.prices[symbol] = price

		point := domain.PricePoint{Symbol: symbol, Price: price, Timestamp: now}
		s.history.Append(symbol, point)
		ticks = append(ticks, point)

		for _, order := range s.book.Evaluate(symbol, price) {
			// Slippage-at-trigger: the execution price is the tick price,
			// not the order's stored limit/stop price.
			if err := s.ledger.AttemptTrade(symbol, order.Side, order.Qty, price); err != nil {
				// Triggered orders that fail are discarded, not re-queued.
				s.log.Debug("discarding failed triggered order",
					"order", order.ID, "symbol", symbol, "side", order.Side,
					"qty", order.Qty, "price", price, "error", err)
			}
		}
	}

	s.archiveTicks(ctx, ticks)
	s.broadcast(ticks)
}

// archiveTicks persists the cycle's ticks best-effort.
func (s *Simulator) archiveTicks(ctx context.Context, ticks []domain.PricePoint) {
	if s.archive == nil || len(ticks) == 0 {
		return
	}
	if err := s.archive.WriteTicks(ctx, ticks); err != nil {
		s.log.Warn("archiving ticks", "error", err)
	}
}

// ---------------------------------------------------------------------------
// Command surface
// ---------------------------------------------------------------------------

// OrderRequest is the command-layer shape of an order submission.
type OrderRequest struct {
	Symbol     string
	Side       domain.Side
	Kind       domain.OrderKind
	Qty        int64
	LimitPrice float64
	StopPrice  float64
}

// SubmitOrder validates and routes an order. Market orders execute
// immediately against the latest tick price; limit and stop orders rest in
// the book. Validation failures reject the request with no state change.
func (s *Simulator) SubmitOrder(req OrderRequest) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prices[req.Symbol]; !ok {
		return domain.Order{}, domain.ErrUnknownSymbol
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		Symbol:     req.Symbol,
		Side:       req.Side,
		Kind:       req.Kind,
		Qty:        req.Qty,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
		CreatedAt:  s.now(),
	}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}

	if order.Kind == domain.OrderKindMarket {
		point, ok := s.history.Latest(order.Symbol)
		if !ok {
			return domain.Order{}, domain.ErrNoPriceData
		}
		if err := s.ledger.AttemptTrade(order.Symbol, order.Side, order.Qty, point.Price); err != nil {
			return domain.Order{}, err
		}
		return order, nil
	}

	return s.book.Submit(order)
}

// PortfolioSnapshot returns a deep copy of the current portfolio.
func (s *Simulator) PortfolioSnapshot() *domain.Portfolio {
	return s.ledger.Snapshot()
}

// PortfolioValue marks the portfolio to the latest tick prices.
func (s *Simulator) PortfolioValue() decimal.Decimal {
	s.mu.Lock()
	prices := make(map[string]float64, len(s.prices))
	for symbol, price := range s.prices {
		prices[symbol] = price
	}
	s.mu.Unlock()

	return s.ledger.Valuation(prices)
}

// CurrentPrice returns the latest tick for the symbol, or ErrNoPriceData
// when none has been produced yet.
func (s *Simulator) CurrentPrice(symbol string) (domain.PricePoint, error) {
	point, ok := s.history.Latest(symbol)
	if !ok {
		return domain.PricePoint{}, domain.ErrNoPriceData
	}
	return point, nil
}

// HistoryWindow returns the symbol's history filtered to the named
// timeframe, chronologically ordered.
func (s *Simulator) HistoryWindow(symbol, timeframe string) ([]domain.PricePoint, error) {
	dur, err := history.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()
	return history.Window(s.history.Range(symbol), now(), dur), nil
}

// OpenOrders returns the resting orders for one symbol, or across all
// symbols when symbol is empty.
func (s *Simulator) OpenOrders(symbol string) []domain.Order {
	if symbol == "" {
		return s.book.All()
	}
	return s.book.Resting(symbol)
}

// ---------------------------------------------------------------------------
// Tick subscription (WebSocket streaming)
// ---------------------------------------------------------------------------

// Subscribe registers a tick channel. Slow subscribers have events dropped
// rather than stalling the cycle.
func (s *Simulator) Subscribe() (int, <-chan domain.PricePoint) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan domain.PricePoint, 64)
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscription.
func (s *Simulator) Unsubscribe(id int) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Simulator) broadcast(ticks []domain.PricePoint) {
	if len(ticks) == 0 {
		return
	}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, point := range ticks {
		for _, ch := range s.subs {
			select {
			case ch <- point:
			default:
				// Slow subscriber, drop event.
			}
		}
	}
}
