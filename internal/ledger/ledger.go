// Package ledger is the sole authority over portfolio mutation. Trades are
// all-or-nothing: on any failure the portfolio is left untouched.
package ledger

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// Persister saves portfolio snapshots after successful trades. The ledger
// persists asynchronously through a single writer and only logs failures.
type Persister interface {
	Save(ctx context.Context, p *domain.Portfolio) error
}

// Ledger owns the cash/position state. All mutation goes through
// AttemptTrade; reads get deep copies.
type Ledger struct {
	mu        sync.Mutex
	portfolio *domain.Portfolio
	persister Persister
	log       *slog.Logger

	// Persist queue: one background writer drains pending so snapshots
	// reach storage in trade order, never newest-before-oldest.
	pmu        sync.Mutex
	pending    *domain.Portfolio
	persisting bool
}

// New creates a Ledger around the given starting portfolio. persister may be
// nil for tests that don't exercise persistence.
func New(portfolio *domain.Portfolio, persister Persister, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		portfolio: portfolio,
		persister: persister,
		log:       log.With("component", "ledger"),
	}
}

// AttemptTrade executes a trade at the given price, atomically. Buys fail
// with ErrInsufficientFunds when the notional exceeds cash; sells fail with
// ErrInsufficientShares when qty exceeds the held count. On success the new
// snapshot is persisted in the background.
func (l *Ledger) AttemptTrade(symbol string, side domain.Side, qty int64, price float64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if price <= 0 {
		return domain.ErrInvalidPrice
	}

	total := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty))

	l.mu.Lock()
	switch side {
	case domain.SideBuy:
		if total.GreaterThan(l.portfolio.Cash) {
			l.mu.Unlock()
			return domain.ErrInsufficientFunds
		}
		l.portfolio.Cash = l.portfolio.Cash.Sub(total)
		l.portfolio.Positions[symbol] += qty
	case domain.SideSell:
		held := l.portfolio.Positions[symbol]
		if qty > held {
			l.mu.Unlock()
			return domain.ErrInsufficientShares
		}
		l.portfolio.Cash = l.portfolio.Cash.Add(total)
		if held == qty {
			// Absent entries are equivalent to zero; drop the key.
			delete(l.portfolio.Positions, symbol)
		} else {
			l.portfolio.Positions[symbol] = held - qty
		}
	default:
		l.mu.Unlock()
		return domain.ErrInvalidQuantity
	}
	snapshot := l.portfolio.Clone()
	l.mu.Unlock()

	l.persist(snapshot)
	return nil
}

// persist queues the snapshot for the background writer; the trade path
// never blocks on storage. A single writer drains the queue, so a slow Save
// can never land after a newer one and leave stale state on disk. A newer
// snapshot replaces a still-queued older one: each save fully supersedes
// the previous record, so only the latest state matters.
func (l *Ledger) persist(snapshot *domain.Portfolio) {
	if l.persister == nil {
		return
	}

	l.pmu.Lock()
	l.pending = snapshot
	if l.persisting {
		l.pmu.Unlock()
		return
	}
	l.persisting = true
	l.pmu.Unlock()

	go func() {
		for {
			l.pmu.Lock()
			snap := l.pending
			l.pending = nil
			if snap == nil {
				l.persisting = false
				l.pmu.Unlock()
				return
			}
			l.pmu.Unlock()

			if err := l.persister.Save(context.Background(), snap); err != nil {
				l.log.Error("persisting portfolio", "error", err)
			}
		}
	}()
}

// Snapshot returns a deep copy of the current portfolio.
func (l *Ledger) Snapshot() *domain.Portfolio {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.portfolio.Clone()
}

// Valuation marks the portfolio to the given prices: cash plus the value of
// every position. Symbols with no current price contribute zero to the
// total but the holdings themselves are untouched.
func (l *Ledger) Valuation(prices map[string]float64) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := l.portfolio.Cash
	for sym, qty := range l.portfolio.Positions {
		price, ok := prices[sym]
		if !ok {
			continue
		}
		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(qty)))
	}
	return total
}
