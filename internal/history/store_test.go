package history

import (
	"testing"
	"time"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

func point(symbol string, price float64, ts time.Time) domain.PricePoint {
	return domain.PricePoint{Symbol: symbol, Price: price, Timestamp: ts}
}

func TestStoreAppendLatest(t *testing.T) {
	s := NewStore(10)
	base := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	if _, ok := s.Latest("AAPL"); ok {
		t.Fatal("Latest on empty store should report no data")
	}

	s.Append("AAPL", point("AAPL", 175.0, base))
	s.Append("AAPL", point("AAPL", 176.5, base.Add(10*time.Second)))

	latest, ok := s.Latest("AAPL")
	if !ok {
		t.Fatal("Latest returned no data after appends")
	}
	if latest.Price != 176.5 {
		t.Errorf("Latest price = %v, want 176.5", latest.Price)
	}
}

func TestStoreEvictsOldestAtCapacity(t *testing.T) {
	// Capacity 100, append 105 ticks: length stays 100 and the 5 oldest
	// points are gone.
	s := NewStore(100)
	base := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	for i := 0; i < 105; i++ {
		s.Append("AAPL", point("AAPL", 100+float64(i), base.Add(time.Duration(i)*time.Second)))
	}

	if got := s.Len("AAPL"); got != 100 {
		t.Fatalf("Len = %d, want 100", got)
	}

	points := s.Range("AAPL")
	if points[0].Price != 105 {
		t.Errorf("oldest surviving price = %v, want 105 (first five evicted)", points[0].Price)
	}
	if points[len(points)-1].Price != 204 {
		t.Errorf("newest price = %v, want 204", points[len(points)-1].Price)
	}
}

func TestStoreRangeIsACopy(t *testing.T) {
	s := NewStore(10)
	base := time.Now()
	s.Append("TSLA", point("TSLA", 250.0, base))

	r := s.Range("TSLA")
	r[0].Price = 1.0

	again := s.Range("TSLA")
	if again[0].Price != 250.0 {
		t.Errorf("mutating Range result leaked into store: price = %v, want 250.0", again[0].Price)
	}
}

func TestStoreSymbolsIsolated(t *testing.T) {
	s := NewStore(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		s.Append("AAPL", point("AAPL", float64(i), base.Add(time.Duration(i)*time.Second)))
	}
	s.Append("MSFT", point("MSFT", 420.0, base))

	if got := s.Len("AAPL"); got != 3 {
		t.Errorf("AAPL Len = %d, want 3", got)
	}
	if got := s.Len("MSFT"); got != 1 {
		t.Errorf("MSFT Len = %d, want 1", got)
	}
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// Points at T-25h and T-1h; a 1D window keeps only T-1h.
	points := []domain.PricePoint{
		point("AAPL", 170.0, now.Add(-25*time.Hour)),
		point("AAPL", 175.0, now.Add(-1*time.Hour)),
	}

	dur, err := ParseTimeframe(Timeframe1D)
	if err != nil {
		t.Fatalf("ParseTimeframe: %v", err)
	}

	got := Window(points, now, dur)
	if len(got) != 1 {
		t.Fatalf("Window returned %d points, want 1", len(got))
	}
	if got[0].Price != 175.0 {
		t.Errorf("window point price = %v, want 175.0", got[0].Price)
	}

	// Purity: input unchanged, second call identical.
	if points[0].Price != 170.0 || len(points) != 2 {
		t.Error("Window mutated its input")
	}
	again := Window(points, now, dur)
	if len(again) != len(got) || again[0] != got[0] {
		t.Error("repeated Window calls with identical arguments differ")
	}
}

func TestWindowEmptyAndOrdering(t *testing.T) {
	now := time.Now()
	dur := 24 * time.Hour

	if got := Window(nil, now, dur); len(got) != 0 {
		t.Errorf("Window(nil) returned %d points, want 0", len(got))
	}

	var points []domain.PricePoint
	for i := 0; i < 48; i++ {
		points = append(points, point("MSFT", float64(i), now.Add(-time.Duration(48-i)*time.Hour)))
	}

	got := Window(points, now, dur)
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("window output not chronologically ordered at index %d", i)
		}
	}
	for _, p := range got {
		if !p.Timestamp.After(now.Add(-dur)) {
			t.Errorf("point at %v is outside the window", p.Timestamp)
		}
	}
}

func TestParseTimeframeUnknown(t *testing.T) {
	if _, err := ParseTimeframe("2Y"); err == nil {
		t.Error("ParseTimeframe accepted unknown timeframe")
	}
}
