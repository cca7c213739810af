package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// Compile-time interface check.
var _ PortfolioStore = (*SQLiteStore)(nil)

// SQLiteStore implements PortfolioStore backed by a SQLite database. The
// portfolio is one row of cash plus a positions table; Save replaces both
// in a single transaction.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS portfolio (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	cash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	qty    INTEGER NOT NULL CHECK (qty >= 0)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load reads the portfolio record. It returns (nil, nil) when no record
// exists or the stored cash value does not parse; the caller falls back to
// the configured starting state either way.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.Portfolio, error) {
	var cashStr string
	err := s.db.QueryRowContext(ctx, `SELECT cash FROM portfolio WHERE id = 1`).Scan(&cashStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading portfolio: %w", err)
	}

	cash, err := decimal.NewFromString(cashStr)
	if err != nil || cash.IsNegative() {
		// Malformed record: start fresh rather than fail.
		return nil, nil
	}

	p := domain.NewPortfolio(cash)

	rows, err := s.db.QueryContext(ctx, `SELECT symbol, qty FROM positions ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("loading positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var qty int64
		if err := rows.Scan(&symbol, &qty); err != nil {
			return nil, fmt.Errorf("scanning position: %w", err)
		}
		if qty > 0 {
			p.Positions[symbol] = qty
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating positions: %w", err)
	}

	return p, nil
}

// Save replaces the stored portfolio with the given snapshot atomically.
func (s *SQLiteStore) Save(ctx context.Context, p *domain.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO portfolio (id, cash) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET cash = excluded.cash`,
		p.Cash.String(),
	); err != nil {
		return fmt.Errorf("saving cash: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clearing positions: %w", err)
	}
	for symbol, qty := range p.Positions {
		if qty <= 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO positions (symbol, qty) VALUES (?, ?)`, symbol, qty,
		); err != nil {
			return fmt.Errorf("saving position %s: %w", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}
