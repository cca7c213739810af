package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// Named chart timeframes.
const (
	Timeframe1D = "1D"
	Timeframe1W = "1W"
	Timeframe1M = "1M"
	Timeframe3M = "3M"
)

// ParseTimeframe maps a named timeframe to its rolling duration. Months are
// treated as 30 days, matching the chart's display semantics rather than
// calendar months.
func ParseTimeframe(name string) (time.Duration, error) {
	switch name {
	case Timeframe1D:
		return 24 * time.Hour, nil
	case Timeframe1W:
		return 7 * 24 * time.Hour, nil
	case Timeframe1M:
		return 30 * 24 * time.Hour, nil
	case Timeframe3M:
		return 90 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown timeframe %q", name)
}

// Window returns the chronologically ordered subsequence of points with
// timestamp strictly after now-dur. It never mutates its input; empty input
// or an empty result is valid.
func Window(points []domain.PricePoint, now time.Time, dur time.Duration) []domain.PricePoint {
	cutoff := now.Add(-dur)

	// Points arrive in chronological order, so the window is a suffix.
	// sort.Search finds the first point past the cutoff.
	i := sort.Search(len(points), func(i int) bool {
		return points[i].Timestamp.After(cutoff)
	})

	out := make([]domain.PricePoint, len(points)-i)
	copy(out, points[i:])
	return out
}
