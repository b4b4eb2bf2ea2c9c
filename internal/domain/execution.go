package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies the direction of an order.
type Side int

const (
	SideBuy Side = iota + 1
	SideSell
)

// String returns the string representation of Side
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Valid reports whether the side is one of the two known directions.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Indicator returns the numeric encoding used in feature vectors:
// 1 for buy, 0 for sell.
func (s Side) Indicator() float64 {
	if s == SideBuy {
		return 1
	}
	return 0
}

// ParseSide accepts the upstream encodings: FIX tag 54 values ("1" buy,
// "2" sell) as well as letter and word forms.
func ParseSide(raw string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "1", "B", "BUY":
		return SideBuy, nil
	case "2", "S", "SELL":
		return SideSell, nil
	default:
		return 0, &RecordError{Field: "side", Reason: "unknown side " + raw}
	}
}

// Execution is one historical fill, produced by the upstream trading
// system and consumed read-only.
type Execution struct {
	OrderID    string          `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Timestamp  time.Time       `json:"timestamp"` // order transact time, used for quote matching
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	FillPrice  decimal.Decimal `json:"fill_price"`
	Exchange   string          `json:"exchange"` // venue the fill happened on (FIX LastMkt)
}

// PriceImprovement is the favorable difference between the limit price and
// the actual fill price. For a buy: limit - fill. For a sell: fill - limit.
// Negative values mean the fill was worse than the limit and are preserved
// as signal, never clamped.
func (e *Execution) PriceImprovement() decimal.Decimal {
	if e.Side == SideBuy {
		return e.LimitPrice.Sub(e.FillPrice)
	}
	return e.FillPrice.Sub(e.LimitPrice)
}
