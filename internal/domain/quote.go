package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is one top-of-book observation from the consolidated feed.
// The stream is ordered by timestamp within each symbol and can be far
// larger than memory, so quotes are always consumed one at a time.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	BidPrice  decimal.Decimal `json:"bid_price"`
	BidSize   decimal.Decimal `json:"bid_size"` // zero when the feed omits it (thin quote)
	AskPrice  decimal.Decimal `json:"ask_price"`
	AskSize   decimal.Decimal `json:"ask_size"`
}

// Mid returns the quote midpoint (bid+ask)/2.
func (q *Quote) Mid() decimal.Decimal {
	return q.BidPrice.Add(q.AskPrice).Div(decimal.NewFromInt(2))
}

// Spread returns ask - bid.
func (q *Quote) Spread() decimal.Decimal {
	return q.AskPrice.Sub(q.BidPrice)
}
