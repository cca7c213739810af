// Package httpapi serves the simulator's HTTP API: portfolio state, latest
// and historical prices, order submission, pause/resume control, and a
// WebSocket tick stream.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/book"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/engine"
	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/history"
)

// Server exposes a Simulator over HTTP.
type Server struct {
	sim   *engine.Simulator
	sched *engine.Scheduler // nil disables the pause/resume endpoints
	hub   *Hub
	log   *slog.Logger
}

// NewServer creates a Server. sched may be nil when the tick loop is driven
// externally.
func NewServer(sim *engine.Simulator, sched *engine.Scheduler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		sim:   sim,
		sched: sched,
		hub:   NewHub(sim, log),
		log:   log.With("component", "httpapi"),
	}
}

// Hub returns the WebSocket hub so the caller can run its event loop.
func (s *Server) Hub() *Hub {
	return s.hub
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/symbols", s.handleSymbols)
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/price/{symbol}", s.handlePrice)
	mux.HandleFunc("GET /api/history/{symbol}", s.handleHistory)
	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/orders", s.handleSubmitOrder)
	mux.HandleFunc("POST /api/simulation/pause", s.handlePause)
	mux.HandleFunc("POST /api/simulation/resume", s.handleResume)
	mux.HandleFunc("GET /ws", s.hub.HandleWS)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// errorStatus maps domain errors to HTTP status codes. Requests that are
// well-formed but fail the solvency check are 422, not 400.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownSymbol), errors.Is(err, domain.ErrNoPriceData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, book.ErrMarketOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds), errors.Is(err, domain.ErrInsufficientShares):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSymbols(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"symbols": s.sim.Symbols()})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	snap := s.sim.PortfolioSnapshot()
	writeJSON(w, http.StatusOK, PortfolioResponse{
		Cash:       snap.Cash.StringFixed(2),
		Positions:  snap.Positions,
		TotalValue: s.sim.PortfolioValue().StringFixed(2),
	})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	point, err := s.sim.CurrentPrice(symbol)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PriceResponse{
		Symbol:    point.Symbol,
		Price:     point.Price,
		Timestamp: point.Timestamp,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	timeframe := r.URL.Query().Get("timeframe")
	if timeframe == "" {
		timeframe = history.Timeframe1D
	}

	points, err := s.sim.HistoryWindow(symbol, timeframe)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Symbol:    symbol,
		Timeframe: timeframe,
		Points:    toPricePoints(points),
	})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.sim.OpenOrders(r.URL.Query().Get("symbol"))
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o, "pending")
	}
	writeJSON(w, http.StatusOK, map[string][]OrderResponse{"orders": out})
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	order, err := s.sim.SubmitOrder(engine.OrderRequest{
		Symbol:     req.Symbol,
		Side:       domain.Side(req.Side),
		Kind:       domain.OrderKind(req.Type),
		Qty:        req.Quantity,
		LimitPrice: req.LimitPrice,
		StopPrice:  req.StopPrice,
	})
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	status := "pending"
	if order.Kind == domain.OrderKindMarket {
		status = "filled"
	}
	s.log.Info("order accepted",
		"order", order.ID, "symbol", order.Symbol, "side", order.Side,
		"type", order.Kind, "qty", order.Qty, "status", status)
	writeJSON(w, http.StatusCreated, toOrderResponse(order, status))
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusConflict, "tick loop is not managed by this server")
		return
	}
	s.sched.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	if s.sched == nil {
		writeError(w, http.StatusConflict, "tick loop is not managed by this server")
		return
	}
	s.sched.Resume()
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}
