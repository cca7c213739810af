package httpapi

import (
	"time"

	"github.com/SabhyaAggarwal/Stock-Market-Simulator/internal/domain"
)

// OrderRequest is the POST /api/orders body.
type OrderRequest struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Type       string  `json:"type"`
	Quantity   int64   `json:"quantity"`
	LimitPrice float64 `json:"limitPrice,omitempty"`
	StopPrice  float64 `json:"stopPrice,omitempty"`
}

// OrderResponse describes an accepted order. Status is "filled" for market
// orders and "pending" for resting limit and stop orders.
type OrderResponse struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Type       string    `json:"type"`
	Quantity   int64     `json:"quantity"`
	LimitPrice float64   `json:"limitPrice,omitempty"`
	StopPrice  float64   `json:"stopPrice,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toOrderResponse(o domain.Order, status string) OrderResponse {
	return OrderResponse{
		ID:         o.ID,
		Symbol:     o.Symbol,
		Side:       string(o.Side),
		Type:       string(o.Kind),
		Quantity:   o.Qty,
		LimitPrice: o.LimitPrice,
		StopPrice:  o.StopPrice,
		Status:     status,
		CreatedAt:  o.CreatedAt,
	}
}

// PortfolioResponse is the GET /api/portfolio body. Cash and TotalValue are
// decimal strings so clients never see float rounding in money amounts.
type PortfolioResponse struct {
	Cash       string           `json:"cash"`
	Positions  map[string]int64 `json:"positions"`
	TotalValue string           `json:"totalValue"`
}

// PriceResponse is the GET /api/price/{symbol} body.
type PriceResponse struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse is the GET /api/history/{symbol} body.
type HistoryResponse struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Points    []PriceResponse `json:"points"`
}

func toPricePoints(points []domain.PricePoint) []PriceResponse {
	out := make([]PriceResponse, len(points))
	for i, p := range points {
		out[i] = PriceResponse{Symbol: p.Symbol, Price: p.Price, Timestamp: p.Timestamp}
	}
	return out
}
