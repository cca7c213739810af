package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/book"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/engine"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/feed"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/history"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/ledger"
)

type scriptedSource struct {
	calls   int
	results []map[string]float64
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) FetchQuotes(_ context.Context, _ []string) (map[string]float64, error) {
	if s.calls >= len(s.results) {
		return nil, fmt.Errorf("%w: script exhausted", domain.ErrQuoteUnavailable)
	}
	r := s.results[s.calls]
	s.calls++
	return r, nil
}

func newTestServer(t *testing.T, script ...map[string]float64) (*Server, *engine.Simulator) {
	t.Helper()

	initial := map[string]float64{"AAPL": 175.0}
	f := feed.New(feed.NewWalk(1), nil, feed.WithSource(&scriptedSource{results: script}, 6000000))
	sim := engine.New(
		f,
		history.NewStore(100),
		book.New(),
		ledger.New(domain.NewPortfolio(decimal.NewFromInt(10000)), nil, nil),
		nil,
		initial,
		nil,
	)
	return NewServer(sim, nil, nil), sim
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetPortfolio(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Handler(), "GET", "/api/portfolio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp PortfolioResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Cash != "10000.00" {
		t.Errorf("cash = %q, want 10000.00", resp.Cash)
	}
	if len(resp.Positions) != 0 {
		t.Errorf("positions = %v, want empty", resp.Positions)
	}
}

func TestGetPrice(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})
	h := srv.Handler()

	rec := doRequest(t, h, "GET", "/api/price/AAPL", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status before first tick = %d, want 404", rec.Code)
	}

	sim.Step(context.Background())

	rec = doRequest(t, h, "GET", "/api/price/AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Symbol != "AAPL" || resp.Price != 175.0 {
		t.Errorf("price = %+v, want AAPL @ 175", resp)
	}
}

func TestGetHistory(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})
	h := srv.Handler()
	sim.Step(context.Background())

	rec := doRequest(t, h, "GET", "/api/history/AAPL?timeframe=1W", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HistoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Timeframe != "1W" || len(resp.Points) != 1 {
		t.Errorf("history = %+v, want 1 point in 1W", resp)
	}

	rec = doRequest(t, h, "GET", "/api/history/AAPL?timeframe=5Y", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status for unknown timeframe = %d, want 400", rec.Code)
	}
}

func TestSubmitMarketOrder(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})
	h := srv.Handler()
	sim.Step(context.Background())

	rec := doRequest(t, h, "POST", "/api/orders",
		`{"symbol":"AAPL","side":"buy","type":"market","quantity":10}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body)
	}
	var resp OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Status != "filled" {
		t.Errorf("status = %q, want filled", resp.Status)
	}

	snap := sim.PortfolioSnapshot()
	if !snap.Cash.Equal(decimal.NewFromFloat(8250.00)) {
		t.Errorf("cash = %s, want 8250", snap.Cash)
	}
}

func TestSubmitLimitOrderRests(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})
	h := srv.Handler()
	sim.Step(context.Background())

	rec := doRequest(t, h, "POST", "/api/orders",
		`{"symbol":"AAPL","side":"buy","type":"limit","quantity":5,"limitPrice":170}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body)
	}
	var resp OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Status != "pending" || resp.ID == "" {
		t.Errorf("order = %+v, want pending with an ID", resp)
	}

	rec = doRequest(t, h, "GET", "/api/orders?symbol=AAPL", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("listing status = %d, want 200", rec.Code)
	}
	var list map[string][]OrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list["orders"]) != 1 || list["orders"][0].ID != resp.ID {
		t.Errorf("orders = %+v, want the resting order", list["orders"])
	}
}

func TestSubmitOrderErrors(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})
	h := srv.Handler()
	sim.Step(context.Background())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed JSON", `{"symbol":`, http.StatusBadRequest},
		{"zero quantity", `{"symbol":"AAPL","side":"buy","type":"market","quantity":0}`, http.StatusBadRequest},
		{"unknown side", `{"symbol":"AAPL","side":"hold","type":"market","quantity":1}`, http.StatusBadRequest},
		{"missing limit price", `{"symbol":"AAPL","side":"buy","type":"limit","quantity":5}`, http.StatusBadRequest},
		{"unknown symbol", `{"symbol":"ZZZ","side":"buy","type":"market","quantity":1}`, http.StatusNotFound},
		{"insufficient funds", `{"symbol":"AAPL","side":"buy","type":"market","quantity":1000}`, http.StatusUnprocessableEntity},
		{"insufficient shares", `{"symbol":"AAPL","side":"sell","type":"market","quantity":1}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, "POST", "/api/orders", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestPauseWithoutScheduler(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv.Handler(), "POST", "/api/simulation/pause", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409 when no scheduler is attached", rec.Code)
	}
}

func TestPauseResume(t *testing.T) {
	srv, sim := newTestServer(t)
	sched := engine.NewScheduler(sim, time.Hour, nil)
	srv.sched = sched
	h := srv.Handler()

	rec := doRequest(t, h, "POST", "/api/simulation/pause", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("pause status = %d, want 200", rec.Code)
	}
	rec = doRequest(t, h, "POST", "/api/simulation/resume", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("resume status = %d, want 200", rec.Code)
	}
}

func TestWebSocketClosedAfterHubStops(t *testing.T) {
	srv, _ := newTestServer(t, map[string]float64{"AAPL": 175.0})

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		srv.Hub().Run(ctx)
		close(hubDone)
	}()
	cancel()
	<-hubDone

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		// Refusing the upgrade outright is also acceptable.
		return
	}
	defer conn.Close()

	// The server must close the connection instead of leaving the handler
	// parked on the register channel; a deadline hit means it never did.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("read succeeded on a connection the server should have closed")
	} else {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			t.Fatal("connection left open after hub shutdown")
		}
	}
}

func TestWebSocketStreamsTicks(t *testing.T) {
	srv, sim := newTestServer(t, map[string]float64{"AAPL": 175.0})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Hub().Run(ctx)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	defer conn.Close()

	// Registration goes through the hub loop; give it a moment before the
	// tick is produced.
	time.Sleep(50 * time.Millisecond)
	sim.Step(context.Background())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg tickMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	if msg.Type != "tick" || msg.Symbol != "AAPL" || msg.Price != 175.0 {
		t.Errorf("frame = %+v, want tick AAPL @ 175", msg)
	}
}
