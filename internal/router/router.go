// Package router selects the venue with the best predicted price
// improvement for a prospective order. A Router is an explicit, immutable
// view over one loaded bundle: construct it once, call it from anywhere.
// Multiple routers over different bundles can coexist in one process.
package router

import (
	"math"

	"github.com/shopspring/decimal"

	"sor_go/internal/domain"
	"sor_go/internal/feature"
	"sor_go/internal/model"
)

// Router answers routing queries against one trained bundle. It holds no
// mutable state: calls are reentrant and identical inputs always produce
// identical outputs.
type Router struct {
	bundle *model.Bundle
}

// New validates the bundle and wraps it. A nil bundle, a bundle with no
// routable exchange, or a schema that no longer matches the feature
// builder is a configuration error: routing must never guess.
func New(b *model.Bundle) (*Router, error) {
	if b.Empty() {
		return nil, &domain.ConfigError{Field: "bundle", Err: domain.ErrEmptyBundle}
	}
	if !schemaMatches(b.Schema) {
		return nil, &domain.ConfigError{Field: "bundle", Err: domain.ErrSchemaMismatch}
	}
	return &Router{bundle: b}, nil
}

func schemaMatches(schema []string) bool {
	current := feature.Schema()
	if len(schema) != len(current) {
		return false
	}
	for i := range schema {
		if schema[i] != current[i] {
			return false
		}
	}
	return true
}

// BestPriceImprovement builds the feature vector once, evaluates every
// exchange's model on it, and returns the exchange with the greatest
// predicted improvement. The symbol is accepted for interface completeness
// but does not enter the vector: models are symbol-independent.
//
// Ties (common when several venues degrade to a constant fallback) break
// deterministically: the exchange with the larger training sample count
// wins, then the lexicographically smaller id.
func (r *Router) BestPriceImprovement(
	symbol string,
	side domain.Side,
	quantity decimal.Decimal,
	limitPrice, bidPrice, askPrice decimal.Decimal,
	bidSize, askSize decimal.Decimal,
) (string, float64, error) {
	_ = symbol

	vec, err := feature.Vector(side, quantity, limitPrice, bidPrice, askPrice, bidSize, askSize)
	if err != nil {
		return "", 0, err
	}

	best := ""
	bestPred := math.Inf(-1)
	bestSamples := -1

	for _, id := range r.bundle.RoutableExchanges() {
		em := r.bundle.Exchanges[id]
		pred := em.Model.Predict(vec)
		if pred > bestPred || (pred == bestPred && em.SampleCount > bestSamples) {
			best = id
			bestPred = pred
			bestSamples = em.SampleCount
		}
	}

	return best, bestPred, nil
}

// PredictImprovement evaluates a single named exchange's model. Requesting
// an exchange outside the bundle is a configuration error, never a guess.
func (r *Router) PredictImprovement(
	exchange string,
	side domain.Side,
	quantity decimal.Decimal,
	limitPrice, bidPrice, askPrice decimal.Decimal,
	bidSize, askSize decimal.Decimal,
) (float64, error) {
	em, ok := r.bundle.Exchanges[exchange]
	if !ok || !em.Routable() {
		return 0, &domain.ConfigError{Field: "exchange", Err: domain.ErrUnknownExchange}
	}

	vec, err := feature.Vector(side, quantity, limitPrice, bidPrice, askPrice, bidSize, askSize)
	if err != nil {
		return 0, err
	}
	return em.Model.Predict(vec), nil
}

// Exchanges returns the routable exchange ids, lexicographically ordered.
func (r *Router) Exchanges() []string {
	return r.bundle.RoutableExchanges()
}
