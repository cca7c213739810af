package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/util"
)

// Feed produces the next price per symbol each cycle. With a quote source
// configured it polls the provider (rate-limited and time-bounded) and falls
// back to the synthetic walk for any cycle the provider fails; failures
// never propagate past the feed.
type Feed struct {
	walk    *Walk
	source  QuoteSource // nil for pure synthetic operation
	limiter *util.RateLimiter
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Feed.
type Option func(*Feed)

// WithSource attaches an external quote source polled at most perMinute
// times per minute.
func WithSource(source QuoteSource, perMinute int) Option {
	return func(f *Feed) {
		f.source = source
		f.limiter = util.NewRateLimiter(perMinute)
	}
}

// WithTimeout bounds each external quote fetch.
func WithTimeout(d time.Duration) Option {
	return func(f *Feed) { f.timeout = d }
}

// New creates a Feed around the given synthetic walk.
func New(walk *Walk, log *slog.Logger, opts ...Option) *Feed {
	if log == nil {
		log = slog.Default()
	}
	f := &Feed{
		walk:    walk,
		timeout: 5 * time.Second,
		log:     log.With("component", "feed"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Tick returns the next price for every symbol in prev. Quotes come from
// the external source when it is configured, allowed by the rate limit, and
// succeeds within the timeout; otherwise each symbol advances one synthetic
// step from its previous price.
func (f *Feed) Tick(ctx context.Context, prev map[string]float64) map[string]float64 {
	next := make(map[string]float64, len(prev))

	quotes := f.pollQuotes(ctx, symbolsOf(prev))
	for symbol, price := range prev {
		if q, ok := quotes[symbol]; ok && q > 0 {
			next[symbol] = q
		} else {
			next[symbol] = f.walk.Next(price)
		}
	}
	return next
}

// InitialPrices resolves starting prices: one attempt against the external
// source (with retries), falling back to the configured base prices.
func (f *Feed) InitialPrices(ctx context.Context, base map[string]float64) map[string]float64 {
	prices := make(map[string]float64, len(base))
	for symbol, price := range base {
		prices[symbol] = price
	}

	if f.source == nil {
		return prices
	}

	var quotes map[string]float64
	err := util.Retry(ctx, 3, 500*time.Millisecond, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		var ferr error
		quotes, ferr = f.source.FetchQuotes(fetchCtx, symbolsOf(base))
		return ferr
	})
	if err != nil {
		f.log.Warn("initial quote fetch failed, using base prices", "source", f.source.Name(), "error", err)
		return prices
	}

	for symbol, price := range quotes {
		if price > 0 {
			prices[symbol] = price
		}
	}
	return prices
}

// pollQuotes attempts one rate-limited fetch from the source. It returns nil
// on any failure; the caller falls back to the synthetic walk.
func (f *Feed) pollQuotes(ctx context.Context, symbols []string) map[string]float64 {
	if f.source == nil {
		return nil
	}
	if !f.limiter.Allow() {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	quotes, err := f.source.FetchQuotes(fetchCtx, symbols)
	if err != nil {
		f.log.Warn("quote fetch failed, falling back to synthetic walk",
			"source", f.source.Name(), "error", err)
		return nil
	}
	return quotes
}

func symbolsOf(prices map[string]float64) []string {
	symbols := make([]string, 0, len(prices))
	for symbol := range prices {
		symbols = append(symbols, symbol)
	}
	return symbols
}
