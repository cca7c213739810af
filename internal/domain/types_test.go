package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderValidate(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		order Order
		want  error
	}{
		{
			name:  "market order ok",
			order: Order{Symbol: "AAPL", Side: SideBuy, Kind: OrderKindMarket, Qty: 10, CreatedAt: now},
			want:  nil,
		},
		{
			name:  "zero quantity",
			order: Order{Symbol: "AAPL", Side: SideBuy, Kind: OrderKindMarket, Qty: 0},
			want:  ErrInvalidQuantity,
		},
		{
			name:  "negative quantity",
			order: Order{Symbol: "AAPL", Side: SideSell, Kind: OrderKindLimit, Qty: -5, LimitPrice: 100},
			want:  ErrInvalidQuantity,
		},
		{
			name:  "limit without price",
			order: Order{Symbol: "TSLA", Side: SideBuy, Kind: OrderKindLimit, Qty: 5},
			want:  ErrInvalidPrice,
		},
		{
			name:  "stop with negative price",
			order: Order{Symbol: "TSLA", Side: SideSell, Kind: OrderKindStop, Qty: 5, StopPrice: -1},
			want:  ErrInvalidPrice,
		},
		{
			name:  "unknown side",
			order: Order{Symbol: "AAPL", Side: "hold", Kind: OrderKindMarket, Qty: 1},
			want:  ErrInvalidOrder,
		},
		{
			name:  "unknown kind",
			order: Order{Symbol: "AAPL", Side: SideBuy, Kind: "trailing", Qty: 1},
			want:  ErrInvalidOrder,
		},
		{
			name:  "limit ok",
			order: Order{Symbol: "MSFT", Side: SideBuy, Kind: OrderKindLimit, Qty: 1, LimitPrice: 420},
			want:  nil,
		},
		{
			name:  "stop ok",
			order: Order{Symbol: "MSFT", Side: SideSell, Kind: OrderKindStop, Qty: 1, StopPrice: 400},
			want:  nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.order.Validate()
			if !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPortfolioClone(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(10000))
	p.Positions["AAPL"] = 10

	c := p.Clone()
	c.Positions["AAPL"] = 99
	c.Positions["TSLA"] = 1
	c.Cash = decimal.Zero

	if p.Positions["AAPL"] != 10 {
		t.Errorf("clone mutation leaked into original: AAPL = %d, want 10", p.Positions["AAPL"])
	}
	if _, ok := p.Positions["TSLA"]; ok {
		t.Error("clone mutation added TSLA to original positions")
	}
	if !p.Cash.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("original cash changed: %s, want 10000", p.Cash)
	}
}
