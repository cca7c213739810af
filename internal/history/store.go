// Package history maintains the bounded in-memory price series per symbol
// and provides pure timeframe windowing over it.
package history

import (
	"sync"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// Store holds a bounded, insertion-ordered price series per symbol. When a
// symbol's series reaches capacity, appending evicts the oldest point.
type Store struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]domain.PricePoint
}

// NewStore creates a Store bounding each symbol's series to capacity points.
// Non-positive capacities fall back to 100.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 100
	}
	return &Store{
		capacity: capacity,
		series:   make(map[string][]domain.PricePoint),
	}
}

// Capacity returns the per-symbol bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// Append adds a point to the symbol's series, evicting the oldest point if
// the series is at capacity.
func (s *Store) Append(symbol string, point domain.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.series[symbol]
	if len(points) >= s.capacity {
		// Shift in place so the backing array doesn't grow without bound.
		n := copy(points, points[len(points)-s.capacity+1:])
		points = points[:n]
	}
	s.series[symbol] = append(points, point)
}

// Latest returns the most recently appended point for the symbol. The second
// return value is false when no tick exists yet.
func (s *Store) Latest(symbol string) (domain.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[symbol]
	if len(points) == 0 {
		return domain.PricePoint{}, false
	}
	return points[len(points)-1], true
}

// Range returns a copy of the symbol's series in chronological order.
func (s *Store) Range(symbol string) []domain.PricePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[symbol]
	out := make([]domain.PricePoint, len(points))
	copy(out, points)
	return out
}

// Len returns the current number of points held for the symbol.
func (s *Store) Len(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[symbol])
}
