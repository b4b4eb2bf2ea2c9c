package model

import (
	"sort"
	"time"
)

// ExchangeStatus records how an exchange's data was handled at training
// time. The decision is always explicit, never a silently missing entry.
type ExchangeStatus string

const (
	// StatusTrained - full regression model fitted on held-in data.
	StatusTrained ExchangeStatus = "trained"
	// StatusFallback - too few samples for a regression; the exchange
	// predicts its historical mean improvement instead.
	StatusFallback ExchangeStatus = "fallback"
	// StatusExcluded - too few samples even for the fallback; the
	// exchange carries no model and is never routed to.
	StatusExcluded ExchangeStatus = "excluded"
)

// ExchangeModel is one exchange's entry in the bundle: the fitted model
// (nil when excluded) plus the training metadata the router's tie-break
// and any offline analysis rely on.
type ExchangeModel struct {
	Exchange        string
	Status          ExchangeStatus
	Model           Model // nil iff Status == StatusExcluded
	SampleCount     int
	MeanImprovement float64
	RMSE            float64
	R2              float64
	TrainStart      time.Time
	TrainEnd        time.Time
}

// Routable reports whether the exchange can be predicted for.
func (em *ExchangeModel) Routable() bool {
	return em.Model != nil
}

// Bundle is the sole artifact handed from training to routing: every
// exchange's model, the feature schema they were trained on, and run
// metadata. Immutable once built; safe for concurrent readers.
type Bundle struct {
	RunID     string
	CreatedAt time.Time
	Schema    []string
	Exchanges map[string]*ExchangeModel
}

// RoutableExchanges returns the ids of exchanges that carry a model, in
// lexicographic order so iteration is deterministic.
func (b *Bundle) RoutableExchanges() []string {
	var out []string
	for id, em := range b.Exchanges {
		if em.Routable() {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Empty reports whether the bundle has no routable exchange.
func (b *Bundle) Empty() bool {
	return b == nil || len(b.RoutableExchanges()) == 0
}
