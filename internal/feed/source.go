package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// QuoteSource is an external price provider. FetchQuotes either returns a
// price for every requested symbol or fails with ErrQuoteUnavailable,
// never partial data.
type QuoteSource interface {
	// Name returns the source identifier (e.g. "finnhub", "alpaca").
	Name() string

	// FetchQuotes returns the current price per symbol.
	FetchQuotes(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Compile-time interface checks.
var _ QuoteSource = (*FinnhubSource)(nil)
var _ QuoteSource = (*AlpacaSource)(nil)

// ---------------------------------------------------------------------------
// Finnhub
// ---------------------------------------------------------------------------

// FinnhubSource fetches quotes from the Finnhub REST API, one request per
// symbol against /quote.
type FinnhubSource struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewFinnhubSource creates a FinnhubSource for the given API base URL and
// token.
func NewFinnhubSource(baseURL, token string) *FinnhubSource {
	return &FinnhubSource{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns "finnhub".
func (f *FinnhubSource) Name() string { return "finnhub" }

// finnhubQuote is the subset of the /quote response the feed needs. "c" is
// the current price.
type finnhubQuote struct {
	Current float64 `json:"c"`
}

// FetchQuotes fetches the current price for each symbol. The first
// transport, parse, or zero-price failure aborts the whole batch with
// ErrQuoteUnavailable.
func (f *FinnhubSource) FetchQuotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	quotes := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		price, err := f.fetchQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		quotes[symbol] = price
	}
	return quotes, nil
}

func (f *FinnhubSource) fetchQuote(ctx context.Context, symbol string) (float64, error) {
	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		f.baseURL, url.QueryEscape(symbol), url.QueryEscape(f.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: building request for %s: %v", domain.ErrQuoteUnavailable, symbol, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: fetching %s: %v", domain.ErrQuoteUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: fetching %s: status %d", domain.ErrQuoteUnavailable, symbol, resp.StatusCode)
	}

	var q finnhubQuote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return 0, fmt.Errorf("%w: parsing %s: %v", domain.ErrQuoteUnavailable, symbol, err)
	}
	if q.Current <= 0 {
		return 0, fmt.Errorf("%w: no quote for %s", domain.ErrQuoteUnavailable, symbol)
	}
	return q.Current, nil
}

// ---------------------------------------------------------------------------
// Alpaca
// ---------------------------------------------------------------------------

// AlpacaSource fetches the latest trade price per symbol from the Alpaca
// market-data API.
type AlpacaSource struct {
	client *marketdata.Client
}

// NewAlpacaSource creates an AlpacaSource with the given credentials.
// dataURL may be empty to use the SDK default.
func NewAlpacaSource(apiKey, apiSecret, dataURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{client: marketdata.NewClient(opts)}
}

// Name returns "alpaca".
func (a *AlpacaSource) Name() string { return "alpaca" }

// FetchQuotes returns the latest trade price for each symbol, failing the
// whole batch with ErrQuoteUnavailable on the first error.
func (a *AlpacaSource) FetchQuotes(_ context.Context, symbols []string) (map[string]float64, error) {
	quotes := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		trade, err := a.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
		if err != nil {
			return nil, fmt.Errorf("%w: fetching %s: %v", domain.ErrQuoteUnavailable, symbol, err)
		}
		if trade == nil || trade.Price <= 0 {
			return nil, fmt.Errorf("%w: no trade for %s", domain.ErrQuoteUnavailable, symbol)
		}
		quotes[symbol] = trade.Price
	}
	return quotes, nil
}
