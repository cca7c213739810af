package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// Compile-time interface check.
var _ TickWriter = (*TickArchive)(nil)

// TickArchive persists price ticks to Parquet files on disk, one file per
// symbol and day. The in-memory history store stays bounded; the archive is
// where evicted ticks live on.
type TickArchive struct {
	DataDir string
}

// NewTickArchive creates a TickArchive rooted at the given data directory.
func NewTickArchive(dataDir string) *TickArchive {
	return &TickArchive{DataDir: dataDir}
}

// TickRecord is the Parquet schema for archived ticks.
type TickRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price     float64 `parquet:"price"`
	Volume    int64   `parquet:"volume"`
}

// WriteTicks appends ticks to the archive, grouped by symbol and date.
// Records already present for the same (symbol, timestamp) are replaced.
func (a *TickArchive) WriteTicks(_ context.Context, ticks []domain.PricePoint) error {
	if len(ticks) == 0 {
		return nil
	}

	type key struct {
		symbol string
		date   string // YYYY-MM-DD
	}
	groups := make(map[key][]TickRecord)
	for _, tk := range ticks {
		k := key{symbol: tk.Symbol, date: tk.Timestamp.UTC().Format("2006-01-02")}
		groups[k] = append(groups[k], TickRecord{
			Symbol:    tk.Symbol,
			Timestamp: tk.Timestamp.UnixMilli(),
			Price:     tk.Price,
			Volume:    tk.Volume,
		})
	}

	for k, records := range groups {
		path := a.tickPath(k.symbol, k.date)

		existing, _ := readParquetFile[TickRecord](path)
		merged := mergeTickRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing ticks for %s/%s: %w", k.symbol, k.date, err)
		}
	}
	return nil
}

// ReadTicks reads archived ticks for the given symbol and time range in
// chronological order.
func (a *TickArchive) ReadTicks(_ context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error) {
	var ticks []domain.PricePoint
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		path := a.tickPath(symbol, d.Format("2006-01-02"))
		records, err := readParquetFile[TickRecord](path)
		if err != nil {
			// No file for this day, skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp).UTC()
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				ticks = append(ticks, domain.PricePoint{
					Symbol:    r.Symbol,
					Price:     r.Price,
					Volume:    r.Volume,
					Timestamp: ts,
				})
			}
		}
	}
	return ticks, nil
}

// tickPath returns the filesystem path for a tick Parquet file.
// Layout: <dataDir>/ticks/<SYMBOL>/<YYYY-MM-DD>.parquet
func (a *TickArchive) tickPath(symbol, date string) string {
	return filepath.Join(a.DataDir, "ticks", strings.ToUpper(symbol), date+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeTickRecords deduplicates by (symbol, timestamp), preferring incoming
// records, and sorts by timestamp.
func mergeTickRecords(existing, incoming []TickRecord) []TickRecord {
	type key struct {
		symbol string
		ts     int64
	}
	seen := make(map[key]TickRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.Symbol, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.Symbol, r.Timestamp}] = r
	}

	merged := make([]TickRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
