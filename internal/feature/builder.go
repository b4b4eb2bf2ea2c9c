// Package feature turns matched executions and routing requests into the
// numeric vectors the per-exchange models consume. The schema is frozen
// here and nowhere else: training and inference both pass through Vector,
// so a trained model can never see a differently shaped input.
package feature

import (
	"errors"

	"github.com/shopspring/decimal"

	"sor_go/internal/domain"
)

// schema is the ordered feature layout. Mid price and spread are linear
// combinations of bid/ask and deliberately not separate columns; symbol is
// excluded so one model serves every symbol on an exchange.
var schema = []string{
	"side",
	"quantity",
	"limit_price",
	"bid_price",
	"ask_price",
	"bid_size",
	"ask_size",
}

// Schema returns a copy of the ordered feature names.
func Schema() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}

// Size is the feature vector length.
func Size() int {
	return len(schema)
}

// Vector builds the feature vector. Prices must be strictly positive and
// sizes non-negative; a violation returns a ValidationError naming the
// first offending field. Zero sizes are valid (thin quote).
func Vector(side domain.Side, quantity, limitPrice, bidPrice, askPrice, bidSize, askSize decimal.Decimal) ([]float64, error) {
	if !side.Valid() {
		return nil, &domain.ValidationError{Field: "side", Reason: "must be buy or sell"}
	}
	if !quantity.IsPositive() {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !limitPrice.IsPositive() {
		return nil, &domain.ValidationError{Field: "limit_price", Reason: "must be positive"}
	}
	if !bidPrice.IsPositive() {
		return nil, &domain.ValidationError{Field: "bid_price", Reason: "must be positive"}
	}
	if !askPrice.IsPositive() {
		return nil, &domain.ValidationError{Field: "ask_price", Reason: "must be positive"}
	}
	if bidSize.IsNegative() {
		return nil, &domain.ValidationError{Field: "bid_size", Reason: "must be non-negative"}
	}
	if askSize.IsNegative() {
		return nil, &domain.ValidationError{Field: "ask_size", Reason: "must be non-negative"}
	}

	return []float64{
		side.Indicator(),
		quantity.InexactFloat64(),
		limitPrice.InexactFloat64(),
		bidPrice.InexactFloat64(),
		askPrice.InexactFloat64(),
		bidSize.InexactFloat64(),
		askSize.InexactFloat64(),
	}, nil
}

// FromAnnotated builds the training row for a matched execution: the
// feature vector plus the price-improvement label. Validation failures are
// reported as record errors, since here a bad value means a malformed
// upstream record rather than a bad caller.
func FromAnnotated(a domain.AnnotatedExecution) ([]float64, float64, error) {
	e := a.Execution
	vec, err := Vector(e.Side, e.Quantity, e.LimitPrice, a.Quote.BidPrice, a.Quote.AskPrice, a.Quote.BidSize, a.Quote.AskSize)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, 0, &domain.RecordError{Field: ve.Field, Reason: ve.Reason}
		}
		return nil, 0, err
	}
	return vec, a.PriceImprovement.InexactFloat64(), nil
}
