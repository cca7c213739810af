// Package store defines storage interfaces for the simulator's durable
// state and provides SQLite and Parquet implementations.
package store

import (
	"context"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// PortfolioStore persists and retrieves the single portfolio record. Load is
// called once at startup; Save after every successful trade.
type PortfolioStore interface {
	// Load returns the persisted portfolio, or nil when no record exists
	// yet. Malformed records are treated as absent.
	Load(ctx context.Context) (*domain.Portfolio, error)

	// Save writes the portfolio snapshot, replacing any previous record.
	Save(ctx context.Context, p *domain.Portfolio) error
}

// TickWriter archives price ticks beyond the bounded in-memory window.
type TickWriter interface {
	// WriteTicks persists a batch of ticks.
	WriteTicks(ctx context.Context, ticks []domain.PricePoint) error
}
